package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Account struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username"      json:"username"`
	Email        string             `bson:"email"         json:"email"`
	PasswordHash string             `bson:"password"      json:"-"`
	CreatedAt    time.Time          `bson:"createdAt"     json:"createdAt"`
}

// SessionUser is the part of an Account a session exposes.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (a *Account) SessionUser() SessionUser {
	return SessionUser{ID: a.ID.Hex(), Email: a.Email, Name: a.Username}
}

package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"pantrypal/models"
)

var ErrDuplicateEmail = errors.New("email already registered")

// Repository defines the account storage operations.
type Repository interface {
	// FindByEmail returns nil, nil when no account matches.
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	// Create returns ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
}

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepository{coll: coll}
}

func (r *mongoRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &account, nil
}

func (r *mongoRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	_, err := r.coll.InsertOne(ctx, account)
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return account, nil
}

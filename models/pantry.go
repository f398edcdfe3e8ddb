package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ingredient is one pantry entry. Key is the catalog id.
type Ingredient struct {
	Key  string `bson:"_id"  json:"_id"`
	Name string `bson:"name" json:"name"`
}

// UnmarshalJSON accepts the catalog key as "_id", "id" or "key".
func (i *Ingredient) UnmarshalJSON(data []byte) error {
	var raw struct {
		UnderscoreID string `json:"_id"`
		ID           string `json:"id"`
		Key          string `json:"key"`
		Name         string `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.Name = raw.Name
	switch {
	case raw.UnderscoreID != "":
		i.Key = raw.UnderscoreID
	case raw.ID != "":
		i.Key = raw.ID
	default:
		i.Key = raw.Key
	}
	return nil
}

type Pantry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner       primitive.ObjectID `bson:"owner"         json:"owner"`
	Ingredients []Ingredient       `bson:"ingredients"   json:"ingredients"`
	Version     int64              `bson:"version"       json:"version"`
	UpdatedAt   time.Time          `bson:"updatedAt"     json:"updatedAt"`
}

// IngredientNames returns the non-empty names in pantry order.
func IngredientNames(items []Ingredient) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Name != "" {
			names = append(names, item.Name)
		}
	}
	return names
}

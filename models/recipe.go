package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecipeID is the provider's recipe identifier. The provider sends numbers,
// older clients sometimes send strings; both decode to the same canonical
// string so 101 and "101" are one key.
type RecipeID string

func (id RecipeID) String() string { return string(id) }

func (id RecipeID) numeric() bool {
	s := string(id)
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (id RecipeID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *RecipeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecipeID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("recipeId must be a number or string: %w", err)
	}
	canonical, err := canonicalNumber(n.String())
	if err != nil {
		return fmt.Errorf("recipeId must be a number or string: %w", err)
	}
	*id = canonical
	return nil
}

// canonicalNumber spells a JSON number one way, so 101, 101.0 and 1.01e2
// are the same id. Integral values become plain integers.
func canonicalNumber(text string) (RecipeID, error) {
	f, _, err := big.ParseFloat(text, 10, 256, big.ToNearestEven)
	if err != nil {
		return "", err
	}
	if f.IsInt() {
		i, _ := f.Int(nil)
		return RecipeID(i.String()), nil
	}
	v, _ := f.Float64()
	return RecipeID(strconv.FormatFloat(v, 'f', -1, 64)), nil
}

func (id RecipeID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(string(id))
}

// UnmarshalBSONValue also reads ids that were stored as numbers.
func (id *RecipeID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*id = RecipeID(rv.StringValue())
	case bsontype.Int32:
		*id = RecipeID(fmt.Sprint(rv.Int32()))
	case bsontype.Int64:
		*id = RecipeID(fmt.Sprint(rv.Int64()))
	case bsontype.Double:
		*id = RecipeID(strconv.FormatFloat(rv.Double(), 'f', -1, 64))
	case bsontype.Null:
		*id = ""
	default:
		return fmt.Errorf("cannot decode %s into RecipeID", t)
	}
	return nil
}

// SavedRecipe is one bookmarked recipe. RecipeID is the dedup key.
type SavedRecipe struct {
	RecipeID RecipeID `bson:"recipeId" json:"recipeId" validate:"required"`
	Title    string   `bson:"title"    json:"title"    validate:"required"`
	Image    string   `bson:"image"    json:"image"    validate:"required"`
}

type SavedRecipeList struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner     primitive.ObjectID `bson:"owner"         json:"owner"`
	Recipes   []SavedRecipe      `bson:"recipes"       json:"recipes"`
	CreatedAt time.Time          `bson:"createdAt"     json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"     json:"updatedAt"`
}

// RecipeSummary is one provider search hit, marked with the caller's saved state.
type RecipeSummary struct {
	ID                    RecipeID `json:"id"`
	Title                 string   `json:"title"`
	Image                 string   `json:"image"`
	UsedIngredientNames   []string `json:"usedIngredients"`
	MissedIngredientNames []string `json:"missedIngredients"`
	Saved                 bool     `json:"saved"`
}

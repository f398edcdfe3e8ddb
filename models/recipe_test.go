package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestRecipeID_JSONAcceptsNumberAndString(t *testing.T) {
	var fromNumber, fromString struct {
		ID RecipeID `json:"recipeId"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"recipeId": 101}`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`{"recipeId": " 101 "}`), &fromString))

	assert.Equal(t, RecipeID("101"), fromNumber.ID)
	assert.Equal(t, fromNumber.ID, fromString.ID)
}

func TestRecipeID_JSONCanonicalNumbers(t *testing.T) {
	cases := map[string]RecipeID{
		`101`:              "101",
		`101.0`:            "101",
		`1.01e2`:           "101",
		`1.01E+2`:          "101",
		`-0`:               "0",
		`12.5`:             "12.5",
		`1.25e1`:           "12.5",
		`9007199254740993`: "9007199254740993",
	}
	for in, want := range cases {
		var v struct {
			ID RecipeID `json:"recipeId"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"recipeId": `+in+`}`), &v), in)
		assert.Equal(t, want, v.ID, in)
	}
}

func TestRecipeID_JSONRejectsObjects(t *testing.T) {
	var v struct {
		ID RecipeID `json:"recipeId"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"recipeId": {"a": 1}}`), &v))
}

func TestRecipeID_MarshalJSON(t *testing.T) {
	cases := map[RecipeID]string{
		"101":     `101`,
		"0":       `0`,
		"007":     `"007"`,
		"abc-12":  `"abc-12"`,
		"":        `""`,
		"12.5":    `"12.5"`,
		"1234567": `1234567`,
	}
	for id, want := range cases {
		got, err := json.Marshal(id)
		require.NoError(t, err)
		assert.Equal(t, want, string(got), string(id))
	}
}

func TestRecipeID_BSONReadsLegacyNumbers(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"recipeId": int32(42), "title": "Soup", "image": "u"})
	require.NoError(t, err)

	var r SavedRecipe
	require.NoError(t, bson.Unmarshal(raw, &r))
	assert.Equal(t, RecipeID("42"), r.RecipeID)

	out, err := bson.Marshal(r)
	require.NoError(t, err)
	var doc bson.M
	require.NoError(t, bson.Unmarshal(out, &doc))
	assert.Equal(t, "42", doc["recipeId"], "ids are stored as strings")

	raw, err = bson.Marshal(bson.M{"recipeId": 101.0, "title": "Soup", "image": "u"})
	require.NoError(t, err)
	require.NoError(t, bson.Unmarshal(raw, &r))
	assert.Equal(t, RecipeID("101"), r.RecipeID)
}

func TestIngredient_UnmarshalKeyAliases(t *testing.T) {
	var items []Ingredient
	body := `[{"_id":"1","name":"egg"},{"id":"2","name":"milk"},{"key":"3","name":"flour"}]`
	require.NoError(t, json.Unmarshal([]byte(body), &items))

	assert.Equal(t, []Ingredient{{"1", "egg"}, {"2", "milk"}, {"3", "flour"}}, items)
	assert.Equal(t, []string{"egg", "milk", "flour"}, IngredientNames(items))
}

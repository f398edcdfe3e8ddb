package savedrecipes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pantrypal/models"
)

var (
	ErrListNotFound   = errors.New("saved recipes document not found")
	ErrRecipeNotFound = errors.New("recipe not in saved list")
)

// Repository defines saved-recipe storage: one list per owner, unique by
// recipe id.
type Repository interface {
	// Get returns nil, nil when the owner has no list.
	Get(ctx context.Context, owner primitive.ObjectID) (*models.SavedRecipeList, error)
	// Add inserts recipe unless an entry with its id exists, creating the
	// list if needed. added is false when the id was already present.
	Add(ctx context.Context, owner primitive.ObjectID, recipe models.SavedRecipe) (added bool, err error)
	// Remove returns ErrListNotFound or ErrRecipeNotFound when nothing
	// was removed.
	Remove(ctx context.Context, owner primitive.ObjectID, id models.RecipeID) error
}

type mongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepository{coll: coll, now: time.Now}
}

// idValues lists the stored forms an id may have. Older documents hold
// numeric ids as numbers.
func idValues(id models.RecipeID) bson.A {
	values := bson.A{id.String()}
	if n, err := strconv.ParseInt(id.String(), 10, 64); err == nil && strconv.FormatInt(n, 10) == id.String() {
		values = append(values, n)
	}
	return values
}

func (r *mongoRepository) Get(ctx context.Context, owner primitive.ObjectID) (*models.SavedRecipeList, error) {
	var list models.SavedRecipeList
	err := r.coll.FindOne(ctx, bson.M{"owner": owner}).Decode(&list)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find saved recipes: %w", err)
	}
	if list.Recipes == nil {
		list.Recipes = []models.SavedRecipe{}
	}
	return &list, nil
}

func (r *mongoRepository) Add(ctx context.Context, owner primitive.ObjectID, recipe models.SavedRecipe) (bool, error) {
	now := r.now().UTC()
	filter := bson.M{
		"owner":            owner,
		"recipes.recipeId": bson.M{"$nin": idValues(recipe.RecipeID)},
	}
	update := bson.M{
		"$push":        bson.M{"recipes": recipe},
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// Either the list already holds this id, or a concurrent first add
		// created the list. Retrying without upsert tells them apart.
		res, err = r.coll.UpdateOne(ctx, filter, update)
	}
	if err != nil {
		return false, fmt.Errorf("add saved recipe: %w", err)
	}
	return res.UpsertedCount > 0 || res.ModifiedCount > 0, nil
}

func (r *mongoRepository) Remove(ctx context.Context, owner primitive.ObjectID, id models.RecipeID) error {
	values := idValues(id)
	filter := bson.M{"owner": owner, "recipes.recipeId": bson.M{"$in": values}}
	update := bson.M{
		"$pull": bson.M{"recipes": bson.M{"recipeId": bson.M{"$in": values}}},
		"$set":  bson.M{"updatedAt": r.now().UTC()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("remove saved recipe: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"owner": owner})
	if err != nil {
		return fmt.Errorf("count saved recipes: %w", err)
	}
	if n == 0 {
		return ErrListNotFound
	}
	return ErrRecipeNotFound
}

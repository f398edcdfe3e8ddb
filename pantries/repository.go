package pantries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pantrypal/models"
)

// ErrVersionMismatch means the stored pantry is missing or at another version.
var ErrVersionMismatch = errors.New("pantry version mismatch")

// Repository defines pantry storage. There is at most one pantry per owner.
type Repository interface {
	// Get returns nil, nil when the owner has no pantry.
	Get(ctx context.Context, owner primitive.ObjectID) (*models.Pantry, error)
	// Replace overwrites or creates the owner's pantry and reports whether
	// it was created along with the new version.
	Replace(ctx context.Context, owner primitive.ObjectID, items []models.Ingredient) (created bool, version int64, err error)
	// ReplaceAt overwrites the pantry only if it is at version expected.
	ReplaceAt(ctx context.Context, owner primitive.ObjectID, items []models.Ingredient, expected int64) (version int64, err error)
}

type mongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepository{coll: coll, now: time.Now}
}

func (r *mongoRepository) Get(ctx context.Context, owner primitive.ObjectID) (*models.Pantry, error) {
	var pantry models.Pantry
	err := r.coll.FindOne(ctx, bson.M{"owner": owner}).Decode(&pantry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pantry: %w", err)
	}
	if pantry.Ingredients == nil {
		pantry.Ingredients = []models.Ingredient{}
	}
	return &pantry, nil
}

func (r *mongoRepository) replaceUpdate(items []models.Ingredient) bson.M {
	return bson.M{
		"$set": bson.M{"ingredients": items, "updatedAt": r.now().UTC()},
		"$inc": bson.M{"version": int64(1)},
	}
}

func (r *mongoRepository) Replace(ctx context.Context, owner primitive.ObjectID, items []models.Ingredient) (bool, int64, error) {
	filter := bson.M{"owner": owner}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	var prior models.Pantry
	err := r.coll.FindOneAndUpdate(ctx, filter, r.replaceUpdate(items), opts).Decode(&prior)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return true, 1, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent first save won the unique owner index; the document
		// exists now, so apply this write as an update of it.
		opts.SetUpsert(false)
		err = r.coll.FindOneAndUpdate(ctx, filter, r.replaceUpdate(items), opts).Decode(&prior)
	}
	if err != nil {
		return false, 0, fmt.Errorf("replace pantry: %w", err)
	}
	return false, prior.Version + 1, nil
}

func (r *mongoRepository) ReplaceAt(ctx context.Context, owner primitive.ObjectID, items []models.Ingredient, expected int64) (int64, error) {
	filter := bson.M{"owner": owner, "version": expected}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Pantry
	err := r.coll.FindOneAndUpdate(ctx, filter, r.replaceUpdate(items), opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrVersionMismatch
	}
	if err != nil {
		return 0, fmt.Errorf("replace pantry at version %d: %w", expected, err)
	}
	return updated.Version, nil
}

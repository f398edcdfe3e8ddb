package pantries

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"pantrypal/apperr"
	"pantrypal/auth"
	"pantrypal/logger"
	"pantrypal/metrics"
	"pantrypal/models"
	"pantrypal/mq"
)

type fakeAccounts map[string]*models.Account

func (f fakeAccounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	if a, ok := f[email]; ok {
		return a, nil
	}
	return nil, apperr.NotFound("User not found")
}

type memRepository struct {
	mu       sync.Mutex
	pantries map[primitive.ObjectID]*models.Pantry
	err      error
}

func newMemRepository() *memRepository {
	return &memRepository{pantries: map[primitive.ObjectID]*models.Pantry{}}
}

func (m *memRepository) Get(_ context.Context, owner primitive.ObjectID) (*models.Pantry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.pantries[owner]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memRepository) Replace(_ context.Context, owner primitive.ObjectID, items []models.Ingredient) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, 0, m.err
	}
	p, ok := m.pantries[owner]
	if !ok {
		m.pantries[owner] = &models.Pantry{Owner: owner, Ingredients: items, Version: 1}
		return true, 1, nil
	}
	p.Ingredients = items
	p.Version++
	return false, p.Version, nil
}

func (m *memRepository) ReplaceAt(_ context.Context, owner primitive.ObjectID, items []models.Ingredient, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pantries[owner]
	if !ok || p.Version != expected {
		return 0, ErrVersionMismatch
	}
	p.Ingredients = items
	p.Version++
	return p.Version, nil
}

type fixture struct {
	repo    *memRepository
	events  *mq.Recorder
	svc     *Service
	handler *Handler
	ann     *models.Account
}

func newFixture() *fixture {
	ann := &models.Account{ID: primitive.NewObjectID(), Username: "ann", Email: "a@x.com"}
	repo := newMemRepository()
	events := &mq.Recorder{}
	svc := NewService(repo, fakeAccounts{ann.Email: ann}, events, metrics.New(), logger.Discard())
	return &fixture{repo: repo, events: events, svc: svc, handler: NewHandler(svc, logger.Discard()), ann: ann}
}

func egg() models.Ingredient  { return models.Ingredient{Key: "1", Name: "egg"} }
func milk() models.Ingredient { return models.Ingredient{Key: "2", Name: "milk"} }

func TestReplace_CreatedThenUpdated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.svc.Replace(ctx, "a@x.com", []models.Ingredient{egg()}, nil)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, int64(1), res.Version)

	res, err = f.svc.Replace(ctx, "a@x.com", []models.Ingredient{egg(), milk()}, nil)
	require.NoError(t, err)
	assert.False(t, res.Created)

	pantry, err := f.svc.Fetch(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, []models.Ingredient{egg(), milk()}, pantry.Ingredients)
	assert.Equal(t, []string{"pantry-created", "pantry-updated"}, f.events.Names())
}

func TestReplace_IdenticalReplaceReportsUpdated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Replace(ctx, "a@x.com", []models.Ingredient{egg()}, nil)
	require.NoError(t, err)
	res, err := f.svc.Replace(ctx, "a@x.com", []models.Ingredient{egg()}, nil)
	require.NoError(t, err)
	assert.False(t, res.Created)
}

func TestReplace_UnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Replace(context.Background(), "nobody@x.com", []models.Ingredient{egg()}, nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Empty(t, f.repo.pantries)
	assert.Empty(t, f.events.Names())
}

func TestReplace_RejectsBadIngredients(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Replace(ctx, "a@x.com", []models.Ingredient{egg(), {Key: "1", Name: "egg again"}}, nil)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = f.svc.Replace(ctx, "a@x.com", []models.Ingredient{{Key: "3"}}, nil)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	assert.Empty(t, f.repo.pantries)
}

func TestReplace_Version(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	zero := int64(0)

	_, err := f.svc.Replace(ctx, "a@x.com", []models.Ingredient{egg()}, &zero)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.Replace(ctx, "a@x.com", []models.Ingredient{egg()}, nil)
	require.NoError(t, err)

	one := int64(1)
	res, err := f.svc.Replace(ctx, "a@x.com", []models.Ingredient{milk()}, &one)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Version)

	_, err = f.svc.Replace(ctx, "a@x.com", []models.Ingredient{egg()}, &one)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestReplace_StoreFailureIsInternal(t *testing.T) {
	f := newFixture()
	f.repo.err = errors.New("connection reset")

	_, err := f.svc.Replace(context.Background(), "a@x.com", []models.Ingredient{egg()}, nil)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.Equal(t, "Error saving pantry", apperr.PublicMessage(err))
}

func TestFetch_NotFoundCollapsesUserAndPantry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Fetch(ctx, "nobody@x.com")
	assert.Equal(t, MessagePantryNotFound, apperr.PublicMessage(err))

	_, err = f.svc.Fetch(ctx, "a@x.com")
	assert.Equal(t, MessagePantryNotFound, apperr.PublicMessage(err))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestHandler_SaveAndGet(t *testing.T) {
	f := newFixture()

	rec := httptest.NewRecorder()
	f.handler.SavePantry(rec, httptest.NewRequest(http.MethodPut, "/pantries",
		strings.NewReader(`{"email":"a@x.com","ingredients":[{"_id":"1","name":"egg"}]}`)), nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Pantry saved","version":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	f.handler.SavePantry(rec, httptest.NewRequest(http.MethodPut, "/pantries",
		strings.NewReader(`{"email":"a@x.com","ingredients":[{"_id":"1","name":"egg"},{"id":"2","name":"milk"}]}`)), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.handler.GetPantry(rec, httptest.NewRequest(http.MethodGet, "/pantries?email=a@x.com", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Ingredients []models.Ingredient `json:"ingredients"`
		Version     int64               `json:"version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []models.Ingredient{egg(), milk()}, body.Ingredients)
	assert.Equal(t, int64(2), body.Version)
}

func TestHandler_Errors(t *testing.T) {
	f := newFixture()

	rec := httptest.NewRecorder()
	f.handler.GetPantry(rec, httptest.NewRequest(http.MethodGet, "/pantries", nil), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Missing email query parameter"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	f.handler.GetPantry(rec, httptest.NewRequest(http.MethodGet, "/pantries?email=a@x.com", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	f.handler.SavePantry(rec, httptest.NewRequest(http.MethodPut, "/pantries",
		strings.NewReader(`{"email":"nobody@x.com","ingredients":[]}`)), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"User not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	f.handler.SavePantry(rec, httptest.NewRequest(http.MethodPut, "/pantries",
		strings.NewReader(`{"email":"a@x.com"}`)), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	f.handler.SavePantry(rec, httptest.NewRequest(http.MethodPut, "/pantries",
		strings.NewReader(`{"ingredients":[]}`)), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_UsesSessionEmail(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Replace(context.Background(), "a@x.com", []models.Ingredient{egg()}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/pantries", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{Email: "a@x.com"}))
	rec := httptest.NewRecorder()
	f.handler.GetPantry(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	owner := primitive.NewObjectID()
	items := []models.Ingredient{egg()}

	mt.Run("replace creates", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		created, version, err := NewMongoRepository(mt.Coll).Replace(context.Background(), owner, items)
		require.NoError(mt, err)
		assert.True(mt, created)
		assert.Equal(mt, int64(1), version)
	})

	mt.Run("replace updates", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "owner", Value: owner},
			{Key: "version", Value: int64(4)},
		}}))

		created, version, err := NewMongoRepository(mt.Coll).Replace(context.Background(), owner, items)
		require.NoError(mt, err)
		assert.False(mt, created)
		assert.Equal(mt, int64(5), version)
	})

	mt.Run("replace after losing the first-save race", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{
				Code:    11000,
				Name:    "DuplicateKey",
				Message: "E11000 duplicate key error collection: pantrypal.pantries index: owner_unique",
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "owner", Value: owner},
				{Key: "version", Value: int64(1)},
			}}),
		)

		created, version, err := NewMongoRepository(mt.Coll).Replace(context.Background(), owner, items)
		require.NoError(mt, err)
		assert.False(mt, created)
		assert.Equal(mt, int64(2), version)
	})

	mt.Run("replace at stale version", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := NewMongoRepository(mt.Coll).ReplaceAt(context.Background(), owner, items, 3)
		assert.ErrorIs(mt, err, ErrVersionMismatch)
	})

	mt.Run("get", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pantrypal.pantries", mtest.FirstBatch, bson.D{
			{Key: "owner", Value: owner},
			{Key: "ingredients", Value: bson.A{bson.D{{Key: "_id", Value: "1"}, {Key: "name", Value: "egg"}}}},
			{Key: "version", Value: int64(2)},
		}))

		pantry, err := NewMongoRepository(mt.Coll).Get(context.Background(), owner)
		require.NoError(mt, err)
		require.NotNil(mt, pantry)
		assert.Equal(mt, items, pantry.Ingredients)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pantrypal.pantries", mtest.FirstBatch))

		pantry, err := NewMongoRepository(mt.Coll).Get(context.Background(), owner)
		require.NoError(mt, err)
		assert.Nil(mt, pantry)
	})
}

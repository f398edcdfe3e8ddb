package discovery

import (
	"context"

	"github.com/sirupsen/logrus"

	"pantrypal/models"
)

const PageSize = 10

// DefaultPantry stands in when the caller has no usable pantry.
var DefaultPantry = []string{"apples", "sugar", "flour", "pumpkin"}

type Pantries interface {
	Fetch(ctx context.Context, email string) (*models.Pantry, error)
}

type SavedRecipes interface {
	SavedIDs(ctx context.Context, email string) (map[models.RecipeID]struct{}, error)
}

type Result struct {
	Recipes     []models.RecipeSummary `json:"recipes"`
	Page        int                    `json:"page"`
	Ingredients []string               `json:"ingredients"`
}

type Service struct {
	provider Provider
	pantries Pantries
	saved    SavedRecipes
	logger   *logrus.Logger
}

func NewService(provider Provider, pantries Pantries, saved SavedRecipes, logger *logrus.Logger) *Service {
	return &Service{provider: provider, pantries: pantries, saved: saved, logger: logger}
}

// Discover searches one page of recipes for the caller's pantry and marks
// the ones already saved. email may be empty.
func (s *Service) Discover(ctx context.Context, email string, page int) (*Result, error) {
	if page < 0 {
		page = 0
	}
	ingredients := s.ingredients(ctx, email)

	recipes, err := s.provider.Search(ctx, ingredients, page, PageSize)
	if err != nil {
		return nil, err
	}

	saved := s.savedIDs(ctx, email)
	for i := range recipes {
		_, recipes[i].Saved = saved[recipes[i].ID]
	}

	return &Result{Recipes: recipes, Page: page, Ingredients: ingredients}, nil
}

func defaultPantry() []string {
	return append([]string(nil), DefaultPantry...)
}

func (s *Service) ingredients(ctx context.Context, email string) []string {
	if email == "" {
		return defaultPantry()
	}
	pantry, err := s.pantries.Fetch(ctx, email)
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Debug("Using default pantry")
		return defaultPantry()
	}
	names := models.IngredientNames(pantry.Ingredients)
	if len(names) == 0 {
		return defaultPantry()
	}
	return names
}

func (s *Service) savedIDs(ctx context.Context, email string) map[models.RecipeID]struct{} {
	if email == "" {
		return nil
	}
	ids, err := s.saved.SavedIDs(ctx, email)
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Warn("Could not load saved recipe ids")
		return nil
	}
	return ids
}

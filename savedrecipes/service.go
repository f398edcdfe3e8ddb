package savedrecipes

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"pantrypal/apperr"
	"pantrypal/metrics"
	"pantrypal/models"
	"pantrypal/mq"
)

const (
	MessageListNotFound   = "Saved recipes document not found for user"
	MessageRecipeNotFound = "Recipe not found in saved list or already removed"
	MessageMissingRecipe  = "Missing required fields: email and recipe details (recipeId, title, image)"
)

// Accounts resolves an email to its account, or an apperr NotFound.
type Accounts interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

type AddResult struct {
	// Added is false when the recipe was already saved. Callers respond the
	// same way in both cases.
	Added bool
}

type Service struct {
	repo     Repository
	accounts Accounts
	events   mq.Emitter
	metrics  *metrics.Registry
	logger   *logrus.Logger
}

func NewService(repo Repository, accounts Accounts, events mq.Emitter, reg *metrics.Registry, logger *logrus.Logger) *Service {
	return &Service{repo: repo, accounts: accounts, events: events, metrics: reg, logger: logger}
}

func (s *Service) Add(ctx context.Context, email string, recipe models.SavedRecipe) (AddResult, error) {
	recipe.RecipeID = models.RecipeID(strings.TrimSpace(recipe.RecipeID.String()))
	recipe.Title = strings.TrimSpace(recipe.Title)
	recipe.Image = strings.TrimSpace(recipe.Image)
	if recipe.RecipeID == "" || recipe.Title == "" || recipe.Image == "" {
		return AddResult{}, apperr.BadRequest(MessageMissingRecipe)
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return AddResult{}, err
	}

	added, err := s.repo.Add(ctx, account.ID, recipe)
	if err != nil {
		return AddResult{}, apperr.Internal("Error saving recipe", err)
	}

	if added {
		s.metrics.Mutation("savedrecipes", "added")
		s.events.Emit(ctx, "recipe-saved", mq.Index{
			EntityType: "savedrecipes",
			Method:     "POST",
			EntityId:   account.ID.Hex(),
			ItemId:     recipe.RecipeID.String(),
			ItemType:   "recipe",
		})
	}
	s.logger.WithFields(logrus.Fields{
		"user_id":   account.ID.Hex(),
		"recipe_id": recipe.RecipeID.String(),
		"added":     added,
	}).Debug("Saved recipe")

	return AddResult{Added: added}, nil
}

func (s *Service) Remove(ctx context.Context, email string, id models.RecipeID) error {
	id = models.RecipeID(strings.TrimSpace(id.String()))
	if id == "" {
		return apperr.BadRequest("Missing required fields: email and recipeId")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	err = s.repo.Remove(ctx, account.ID, id)
	switch {
	case errors.Is(err, ErrListNotFound):
		return apperr.NotFound(MessageListNotFound)
	case errors.Is(err, ErrRecipeNotFound):
		return apperr.NotFound(MessageRecipeNotFound)
	case err != nil:
		return apperr.Internal("Error removing recipe", err)
	}

	s.metrics.Mutation("savedrecipes", "removed")
	s.events.Emit(ctx, "recipe-unsaved", mq.Index{
		EntityType: "savedrecipes",
		Method:     "DELETE",
		EntityId:   account.ID.Hex(),
		ItemId:     id.String(),
		ItemType:   "recipe",
	})
	return nil
}

// Fetch returns the caller's saved recipes. No list yet is an empty result.
func (s *Service) Fetch(ctx context.Context, email string) ([]models.SavedRecipe, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	list, err := s.repo.Get(ctx, account.ID)
	if err != nil {
		return nil, apperr.Internal("Error retrieving saved recipes", err)
	}
	if list == nil {
		return []models.SavedRecipe{}, nil
	}
	return list.Recipes, nil
}

// SavedIDs returns the set of recipe ids the caller has saved.
func (s *Service) SavedIDs(ctx context.Context, email string) (map[models.RecipeID]struct{}, error) {
	recipes, err := s.Fetch(ctx, email)
	if err != nil {
		return nil, err
	}
	ids := make(map[models.RecipeID]struct{}, len(recipes))
	for _, r := range recipes {
		ids[r.RecipeID] = struct{}{}
	}
	return ids, nil
}

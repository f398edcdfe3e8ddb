package pantries

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
	MessagePantryNotFound  = "Pantry not found"
	MessageVersionConflict = "Pantry was changed by another request"
)

// Accounts resolves an email to its account. It returns an apperr NotFound
// for unknown emails.
type Accounts interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

type ReplaceResult struct {
	Created bool
	Version int64
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

// Replace overwrites the caller's pantry with items, creating it on first
// save. When expected is non-nil the write only applies at that version.
func (s *Service) Replace(ctx context.Context, email string, items []models.Ingredient, expected *int64) (ReplaceResult, error) {
	items, err := normalize(items)
	if err != nil {
		return ReplaceResult{}, err
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return ReplaceResult{}, err
	}

	var result ReplaceResult
	if expected != nil {
		result.Version, err = s.repo.ReplaceAt(ctx, account.ID, items, *expected)
		if errors.Is(err, ErrVersionMismatch) {
			return ReplaceResult{}, apperr.Conflict(MessageVersionConflict)
		}
	} else {
		result.Created, result.Version, err = s.repo.Replace(ctx, account.ID, items)
	}
	if err != nil {
		return ReplaceResult{}, apperr.Internal("Error saving pantry", err)
	}

	action := "updated"
	if result.Created {
		action = "created"
	}
	s.metrics.Mutation("pantry", action)
	s.events.Emit(ctx, "pantry-"+action, mq.Index{
		EntityType: "pantry",
		Method:     "PUT",
		EntityId:   account.ID.Hex(),
	})
	s.logger.WithFields(logrus.Fields{
		"user_id":     account.ID.Hex(),
		"ingredients": len(items),
		"version":     result.Version,
	}).Debug("Pantry " + action)

	return result, nil
}

// Fetch returns the caller's pantry. A missing account and a missing pantry
// are the same NotFound.
func (s *Service) Fetch(ctx context.Context, email string) (*models.Pantry, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound(MessagePantryNotFound)
	}
	if err != nil {
		return nil, err
	}

	pantry, err := s.repo.Get(ctx, account.ID)
	if err != nil {
		return nil, apperr.Internal("Error retrieving pantry", err)
	}
	if pantry == nil {
		return nil, apperr.NotFound(MessagePantryNotFound)
	}
	return pantry, nil
}

// normalize trims entries and rejects missing fields and duplicate keys.
func normalize(items []models.Ingredient) ([]models.Ingredient, error) {
	out := make([]models.Ingredient, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item.Key = strings.TrimSpace(item.Key)
		item.Name = strings.TrimSpace(item.Name)
		if item.Key == "" || item.Name == "" {
			return nil, apperr.BadRequest("Each ingredient needs an _id and a name")
		}
		if _, dup := seen[item.Key]; dup {
			return nil, apperr.BadRequest("Duplicate ingredient key: " + item.Key)
		}
		seen[item.Key] = struct{}{}
		out = append(out, item)
	}
	return out, nil
}

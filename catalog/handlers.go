package catalog

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"pantrypal/auth"
	"pantrypal/models"
	"pantrypal/utils"
)

type Pantries interface {
	Fetch(ctx context.Context, email string) (*models.Pantry, error)
}

type Handler struct {
	catalog  *Catalog
	pantries Pantries
	logger   *logrus.Logger
}

func NewHandler(catalog *Catalog, pantries Pantries, logger *logrus.Logger) *Handler {
	return &Handler{catalog: catalog, pantries: pantries, logger: logger}
}

// SearchIngredients handles GET /ingredients?search=&email=. Items already
// in the caller's pantry are left out.
func (h *Handler) SearchIngredients(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()

	var exclude map[string]struct{}
	if email := auth.RequestEmail(r, q.Get("email")); email != "" {
		if pantry, err := h.pantries.Fetch(r.Context(), email); err == nil {
			exclude = make(map[string]struct{}, len(pantry.Ingredients))
			for _, item := range pantry.Ingredients {
				exclude[item.Key] = struct{}{}
			}
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"ingredients": h.catalog.Search(q.Get("search"), exclude),
	})
}

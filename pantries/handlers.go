package pantries

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"pantrypal/apperr"
	"pantrypal/auth"
	"pantrypal/models"
	"pantrypal/utils"
)

type Handler struct {
	svc    *Service
	logger *logrus.Logger
}

func NewHandler(svc *Service, logger *logrus.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type saveRequest struct {
	Email       string              `json:"email"`
	Ingredients []models.Ingredient `json:"ingredients" validate:"required"`
	Version     *int64              `json:"version,omitempty"`
}

// SavePantry handles PUT /pantries (and the POST alias).
func (h *Handler) SavePantry(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req saveRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}
	req.Email = auth.RequestEmail(r, req.Email)
	if req.Email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields: email and ingredients")
		return
	}
	if err := utils.ValidateStruct(req, "Missing required fields"); err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}

	result, err := h.svc.Replace(r.Context(), req.Email, req.Ingredients, req.Version)
	if err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}

	if result.Created {
		utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "Pantry saved", "version": result.Version})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Pantry updated", "version": result.Version})
}

// GetPantry handles GET /pantries?email=.
func (h *Handler) GetPantry(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := auth.RequestEmail(r, r.URL.Query().Get("email"))
	if email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing email query parameter")
		return
	}

	pantry, err := h.svc.Fetch(r.Context(), email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			h.logger.WithField("email", email).Debug("Pantry lookup missed")
		}
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"ingredients": pantry.Ingredients,
		"version":     pantry.Version,
	})
}

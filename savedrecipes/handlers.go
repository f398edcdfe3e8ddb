package savedrecipes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

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

type addRequest struct {
	Email  string              `json:"email"`
	Recipe *models.SavedRecipe `json:"recipe"`
}

type removeRequest struct {
	Email    string          `json:"email"`
	RecipeID models.RecipeID `json:"recipeId"`
}

func (h *Handler) AddRecipe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req addRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}
	req.Email = auth.RequestEmail(r, req.Email)
	if req.Email == "" || req.Recipe == nil || utils.ValidateStruct(req.Recipe, "recipe") != nil {
		utils.RespondWithError(w, http.StatusBadRequest, MessageMissingRecipe)
		return
	}

	if _, err := h.svc.Add(r.Context(), req.Email, *req.Recipe); err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Recipe saved successfully"})
}

func (h *Handler) GetRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := auth.RequestEmail(r, r.URL.Query().Get("email"))
	if email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing email query parameter")
		return
	}

	recipes, err := h.svc.Fetch(r.Context(), email)
	if err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"recipes": recipes})
}

func (h *Handler) RemoveRecipe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req removeRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}
	req.Email = auth.RequestEmail(r, req.Email)
	if req.Email == "" || req.RecipeID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields: email and recipeId")
		return
	}

	if err := h.svc.Remove(r.Context(), req.Email, req.RecipeID); err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Recipe removed successfully"})
}

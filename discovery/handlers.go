package discovery

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"pantrypal/auth"
	"pantrypal/utils"
)

type Handler struct {
	svc    *Service
	logger *logrus.Logger
}

func NewHandler(svc *Service, logger *logrus.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// GetNewRecipes handles GET /new-recipes?email=&page=.
func (h *Handler) GetNewRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	page := 0
	if p := q.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid page")
			return
		}
		page = n
	}

	result, err := h.svc.Discover(r.Context(), auth.RequestEmail(r, q.Get("email")), page)
	if err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

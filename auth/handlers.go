package auth

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"pantrypal/apperr"
	"pantrypal/models"
	"pantrypal/utils"
)

// Directory is the part of the user directory the auth handlers need.
type Directory interface {
	Register(ctx context.Context, username, email, password string) (*models.Account, error)
	Authenticate(ctx context.Context, email, password string) (*models.Account, error)
}

type Handler struct {
	users    Directory
	sessions *Sessions
	logger   *logrus.Logger
}

func NewHandler(users Directory, sessions *Sessions, logger *logrus.Logger) *Handler {
	return &Handler{users: users, sessions: sessions, logger: logger}
}

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req signupRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}
	if err := utils.ValidateStruct(req, "Missing or invalid fields"); err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}

	if _, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "User has been created"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}
	if err := utils.ValidateStruct(req, "Missing required fields"); err != nil {
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}

	account, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.KindUnauthorized) {
			h.logger.WithField("email", req.Email).Info("Login rejected")
		}
		utils.RespondWithAppError(w, r, h.logger, err)
		return
	}

	user := account.SessionUser()
	token, expires, err := h.sessions.Issue(user)
	if err != nil {
		utils.RespondWithAppError(w, r, h.logger, apperr.Internal("Error logging in", err))
		return
	}

	http.SetCookie(w, h.sessions.Cookie(token, expires))
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Logged in",
		"token":   token,
		"user":    user,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.SetCookie(w, ClearedCookie())
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Logged out"})
}

// Session reports the current user. Routed behind middleware.Authenticate.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not logged in")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"user": claims.User()})
}

package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"pantrypal/apperr"
)

// RespondWithError writes {"message": msg}, the shape every client error
// handler reads.
func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, M{"message": msg})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// RespondWithAppError maps err to its status and public message. Server-side
// failures are logged with their detail, which never reaches the client.
func RespondWithAppError(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, err error) {
	code := apperr.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"kind":   apperr.KindOf(err).String(),
		}).Error("Request failed")
	}
	RespondWithError(w, code, apperr.PublicMessage(err))
}

type M map[string]interface{}

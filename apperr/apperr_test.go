package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{BadRequest("missing email"), http.StatusBadRequest},
		{Unauthorized("bad credentials"), http.StatusUnauthorized},
		{NotFound("User not found"), http.StatusNotFound},
		{Conflict("exists"), http.StatusConflict},
		{Upstream("Could not load recipes.", errors.New("503")), http.StatusBadGateway},
		{Internal("Error saving recipe", errors.New("socket closed")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("pantry: %w", NotFound("Pantry not found"))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "Pantry not found", PublicMessage(err))
}

func TestPublicMessageHidesDetail(t *testing.T) {
	cause := errors.New("connection refused 10.0.0.4:27017")
	err := Internal("Error saving pantry", cause)
	assert.Equal(t, "Error saving pantry", PublicMessage(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("boom")))
}

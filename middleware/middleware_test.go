package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantrypal/auth"
	"pantrypal/logger"
	"pantrypal/models"
)

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}

func TestChain_PanicLoggedWithRequestID(t *testing.T) {
	log, hook := test.NewNullLogger()
	h := Chain(log, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/pantries", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Panic recovered", entries[0].Message)
	assert.Equal(t, "req-1", entries[0].Data["request_id"])
	assert.Equal(t, "Request served", entries[1].Message)
	assert.Equal(t, http.StatusInternalServerError, entries[1].Data["status"])
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	var seen string
	h := LoggingMiddleware(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestGuard(t *testing.T) {
	sessions := auth.NewSessions("secret", time.Hour)
	g := NewGuard(sessions)
	token, _, err := sessions.Issue(models.SessionUser{Email: "a@x.com"})
	require.NoError(t, err)

	var email string
	next := func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		email = auth.RequestEmail(r, "")
		w.WriteHeader(http.StatusOK)
	}

	rec := httptest.NewRecorder()
	g.Authenticate(next)(rec, httptest.NewRequest(http.MethodGet, "/session", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	g.Authenticate(next)(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", email)

	email = "unset"
	rec = httptest.NewRecorder()
	g.OptionalAuth(next)(rec, httptest.NewRequest(http.MethodGet, "/pantries", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", email)

	req = httptest.NewRequest(http.MethodGet, "/pantries", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	g.OptionalAuth(next)(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAPIKeyAuthDisabledWithoutKey(t *testing.T) {
	handler := APIKeyAuth("")(okHandler)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyAuthRejectsMissingKey(t *testing.T) {
	handler := APIKeyAuth("secret")(okHandler)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/ping", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestAPIKeyAuthRejectsWrongKey(t *testing.T) {
	handler := APIKeyAuth("secret")(okHandler)

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKeyAuthAcceptsCorrectKey(t *testing.T) {
	handler := APIKeyAuth("secret")(okHandler)

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

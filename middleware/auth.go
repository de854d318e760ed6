package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/nitro-neal/toonout-docker/models"
)

// APIKeyAuth guards a handler with a shared-secret X-API-Key check. With no
// key configured the check is disabled and every request passes.
func APIKeyAuth(key string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if key == "" {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-API-Key") != key {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(models.ErrorResponse{
					Code:    "unauthorized",
					Message: "Unauthorized - Invalid API key",
				})
				return
			}
			next(w, r)
		}
	}
}

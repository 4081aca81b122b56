// Package health implements the liveness endpoint.
package health

import (
	"encoding/json"
	"net/http"

	"github.com/sigstore/rekor-search-ui/api"
)

// Response is the health check result.
type Response struct {
	Healthy bool `json:"healthy"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) error {
	response := api.NewSuccessResponse(&Response{Healthy: true})
	return json.NewEncoder(w).Encode(response)
}

// NewHealthCheck returns the health check handler.
func NewHealthCheck() http.Handler {
	return api.HTTPHandler{
		Handler: api.HandlerFunc(healthHandler),
		Methods: []string{"GET"},
	}
}

package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/auditlens/internal/api/response"
	"github.com/Rrens/auditlens/internal/llm"
)

// ReadyFunc reports whether a dependency can serve requests
type ReadyFunc func(ctx context.Context) error

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including history backend connectivity
func ReadyCheck(provider llm.Provider, ready ReadyFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !provider.IsConfigured() {
			response.Fail(w, http.StatusServiceUnavailable, "not_ready", "model service is not configured")
			return
		}
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				response.Fail(w, http.StatusServiceUnavailable, "not_ready", "history backend not ready")
				return
			}
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// ProviderInfo returns the model service in use
func ProviderInfo(provider llm.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"name":       provider.Name(),
			"model":      provider.DefaultModel(),
			"configured": provider.IsConfigured(),
		})
	}
}

package handlers

import (
	"encoding/json"
	"net/http"
)

// ServiceInfo is the GET / body.
type ServiceInfo struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description,omitempty"`
	Endpoints   map[string]string `json:"endpoints"`
}

// DefaultEndpoints lists the public routes advertised at GET /.
func DefaultEndpoints() map[string]string {
	return map[string]string{
		"health":   "GET /health",
		"ready":    "GET /health/ready",
		"version":  "GET /version",
		"generate": "POST /api/generate",
	}
}

// RootHandler returns a static description of the service.
func RootHandler(info ServiceInfo) http.HandlerFunc {
	if info.Endpoints == nil {
		info.Endpoints = DefaultEndpoints()
	}
	body, _ := json.Marshal(info)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(append(body, '\n'))
	}
}

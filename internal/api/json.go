package api

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC7807 problem details body. Type carries a stable
// per-error-class URI so clients can dispatch on it without parsing titles.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Problem type URIs, one per error class the API produces.
const (
	problemInvalidRequest = "https://routeopt.dev/problems/invalid-request"
	problemNotFound       = "https://routeopt.dev/problems/not-found"
	problemRateLimited    = "https://routeopt.dev/problems/rate-limited"
	problemNotReady       = "https://routeopt.dev/problems/not-ready"
	problemInternal       = "https://routeopt.dev/problems/internal"
)

func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return problemInvalidRequest
	case http.StatusNotFound:
		return problemNotFound
	case http.StatusTooManyRequests:
		return problemRateLimited
	case http.StatusServiceUnavailable:
		return problemNotReady
	default:
		return problemInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:     problemType(status),
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

type errorBody struct {
	Error       string `json:"error"`
	PlaylistURL string `json:"playlist_url,omitempty"`
}

// StatusFor maps an error to the HTTP status the API responds with.
func StatusFor(err error) int {
	var partial *services.PartialCreationError
	var upstream *services.UpstreamError

	switch {
	case errors.As(err, &partial):
		return http.StatusBadGateway
	case errors.As(err, &upstream):
		switch upstream.Status {
		case http.StatusUnauthorized, http.StatusNotFound, http.StatusTooManyRequests:
			return upstream.Status
		}
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotAuthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as {"error": msg}. Errors are never cached.
func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	body := errorBody{Error: err.Error()}
	if status == http.StatusInternalServerError {
		body.Error = "internal error"
	}

	var partial *services.PartialCreationError
	if errors.As(err, &partial) {
		body.PlaylistURL = partial.PlaylistURL
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

// maxBodyBytes caps POST bodies. 100k uris fit comfortably.
const maxBodyBytes = 4 << 20

// APIHandler serves the /api routes on top of a [services.Catalog].
// Every route expects [RequireSession] to have run.
type APIHandler struct {
	catalog             services.Catalog
	pageSize            int
	recommendationLimit int
	logger              *log.Logger
}

// NewAPIHandler creates an [APIHandler]. pageSize is the default limit for search and listing.
func NewAPIHandler(catalog services.Catalog, pageSize, recommendationLimit int, logger *log.Logger) *APIHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &APIHandler{
		catalog:             catalog,
		pageSize:            pageSize,
		recommendationLimit: recommendationLimit,
		logger:              logger,
	}
}

type tracksBody struct {
	Tracks []models.PlaylistTrack `json:"tracks"`
}

type createBody struct {
	URIs        []string `json:"uris"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Public      bool     `json:"public"`
}

// Search handles GET /api/search?q&offset&limit.
func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, err := intParam(q, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := intParam(q, "limit", min(h.pageSize, 50))
	if err != nil {
		writeError(w, err)
		return
	}

	sess, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, shared.ErrNotAuthenticated)
		return
	}

	tracks, err := h.catalog.Search(r.Context(), sess, services.SearchQuery{
		Query:  q.Get("q"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracksBody{Tracks: tracks})
}

// Recommendations handles GET /api/recommendations?seed=..&limit and one param per target feature.
func (h *APIHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q, "limit", h.recommendationLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	targets, err := ParseFeatures(q)
	if err != nil {
		writeError(w, err)
		return
	}

	sess, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, shared.ErrNotAuthenticated)
		return
	}

	tracks, err := h.catalog.GetRecommendations(r.Context(), sess, services.RecommendationQuery{
		SeedIDs:       splitList(q["seed"]),
		Limit:         limit,
		AudioFeatures: targets,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracksBody{Tracks: tracks})
}

// Playlists handles GET /api/playlists?limit&cursor&creator_only.
func (h *APIHandler) Playlists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q, "limit", h.pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	creatorOnly, err := boolParam(q, "creator_only")
	if err != nil {
		writeError(w, err)
		return
	}

	sess, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, shared.ErrNotAuthenticated)
		return
	}

	page, err := h.catalog.GetPlaylists(r.Context(), sess, services.PlaylistsQuery{
		Limit:       limit,
		Cursor:      q.Get("cursor"),
		CreatorOnly: creatorOnly,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CreatePlaylist handles POST /api/playlists with a JSON body {uris, name, description, public}.
func (h *APIHandler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var body createBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, shared.NewValidationError("body", "is not valid JSON: %v", err))
		return
	}

	sess, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, shared.ErrNotAuthenticated)
		return
	}

	created, err := h.catalog.CreatePlaylist(r.Context(), sess, services.CreatePlaylistInput{
		URIs:        body.URIs,
		Name:        body.Name,
		Description: body.Description,
		Public:      body.Public,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("playlist created", "id", created.ID, "user", sess.UserID(), "tracks", len(body.URIs))
	writeJSON(w, http.StatusCreated, created)
}

func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var partial *services.PartialCreationError
	if errors.As(err, &partial) {
		h.logger.Error("playlist left incomplete", "path", r.URL.Path, "playlist", partial.PlaylistID, "stage", partial.Stage, "err", err)
	} else {
		h.logger.Warn("api request failed", "path", r.URL.Path, "err", err)
	}
	writeError(w, err)
}

// ParseFeatures reads target features from query params named after each feature.
func ParseFeatures(q url.Values) (models.AudioFeatures, error) {
	var out models.AudioFeatures
	for _, f := range models.AllFeatures {
		raw := strings.TrimSpace(q.Get(f.String()))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.AudioFeatures{}, shared.NewValidationError(f.String(), "must be a number")
		}
		out = out.With(f, v)
	}
	return out, nil
}

// splitList flattens repeated and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intParam(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, shared.NewValidationError(name, "must be an integer")
	}
	return v, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, shared.NewValidationError(name, "must be a boolean")
	}
	return v, nil
}

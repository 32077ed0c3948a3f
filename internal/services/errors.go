package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/mixtape/internal/shared"
)

// UpstreamError is a non-success response from the catalog.
//
// It matches [shared.ErrAPIRequest]; a 401 also matches [shared.ErrNotAuthenticated].
type UpstreamError struct {
	Status  int
	Message string
	Method  string
	Path    string
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("spotify API error: %s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
}

func (e *UpstreamError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrNotAuthenticated:
		return e.Status == http.StatusUnauthorized
	case shared.ErrPlaylistNotFound:
		return e.Status == http.StatusNotFound
	default:
		return false
	}
}

// Creation stages that can fail after the external playlist exists.
const (
	StageAppend = "append"
	StageRecord = "record"
)

// PartialCreationError reports a playlist that exists on Spotify but is incomplete or was never recorded.
//
// Retrying the creation makes a second playlist; callers should point the user at PlaylistURL instead.
type PartialCreationError struct {
	PlaylistID  string
	PlaylistURL string
	Stage       string
	Appended    int // tracks confirmed added before the failure
	Err         error
}

func (e *PartialCreationError) Error() string {
	return fmt.Sprintf("playlist %s created but %s failed after %d tracks: %v", e.PlaylistID, e.Stage, e.Appended, e.Err)
}

func (e *PartialCreationError) Unwrap() error {
	return e.Err
}

func (e *PartialCreationError) Is(target error) bool {
	return target == shared.ErrPartialCreation
}

func unauthorized(err error) error {
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return err
	}
	return fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
}

// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/session"
)

var _ services.Catalog = (*MockCatalog)(nil)

// MockCatalog is a test double for [services.Catalog]. Unset funcs return zero values.
//
// Every call is recorded by operation name.
type MockCatalog struct {
	SearchFunc             func(services.SearchQuery) ([]models.PlaylistTrack, error)
	GetRecommendationsFunc func(services.RecommendationQuery) ([]models.PlaylistTrack, error)
	GetPlaylistsFunc       func(services.PlaylistsQuery) (*services.PlaylistPage, error)
	CreatePlaylistFunc     func(services.CreatePlaylistInput) (*services.CreatedPlaylist, error)
	CurrentUserFunc        func() (*services.SpotifyUser, error)

	mu    sync.Mutex
	calls []string
	users []string
}

func (m *MockCatalog) record(op string, sess session.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
	if sess != nil {
		m.users = append(m.users, sess.UserID())
	}
}

// Calls returns the recorded operation names in order.
func (m *MockCatalog) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Users returns the session user id of each recorded call.
func (m *MockCatalog) Users() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.users...)
}

func (m *MockCatalog) Search(ctx context.Context, sess session.Session, q services.SearchQuery) ([]models.PlaylistTrack, error) {
	m.record("Search", sess)
	if m.SearchFunc == nil {
		return []models.PlaylistTrack{}, nil
	}
	return m.SearchFunc(q)
}

func (m *MockCatalog) GetRecommendations(ctx context.Context, sess session.Session, q services.RecommendationQuery) ([]models.PlaylistTrack, error) {
	m.record("GetRecommendations", sess)
	if m.GetRecommendationsFunc == nil {
		return []models.PlaylistTrack{}, nil
	}
	return m.GetRecommendationsFunc(q)
}

func (m *MockCatalog) GetPlaylists(ctx context.Context, sess session.Session, q services.PlaylistsQuery) (*services.PlaylistPage, error) {
	m.record("GetPlaylists", sess)
	if m.GetPlaylistsFunc == nil {
		return &services.PlaylistPage{Items: []services.PlaylistSummary{}}, nil
	}
	return m.GetPlaylistsFunc(q)
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, sess session.Session, in services.CreatePlaylistInput) (*services.CreatedPlaylist, error) {
	m.record("CreatePlaylist", sess)
	if m.CreatePlaylistFunc == nil {
		return &services.CreatedPlaylist{ID: "pl-mock", Name: in.Name}, nil
	}
	return m.CreatePlaylistFunc(in)
}

func (m *MockCatalog) CurrentUser(ctx context.Context, sess session.Session) (*services.SpotifyUser, error) {
	m.record("CurrentUser", sess)
	if m.CurrentUserFunc == nil {
		return &services.SpotifyUser{ID: sess.UserID()}, nil
	}
	return m.CurrentUserFunc()
}

// Track builds a previewable [models.PlaylistTrack] with uri "spotify:track:<id>".
func Track(id string, af models.AudioFeatures) models.PlaylistTrack {
	preview := "https://p.scdn.co/" + id
	return models.PlaylistTrack{
		ID:            id,
		URI:           "spotify:track:" + id,
		Name:          "Track " + id,
		Artists:       []string{"Artist " + id},
		PreviewURL:    &preview,
		AudioFeatures: af,
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

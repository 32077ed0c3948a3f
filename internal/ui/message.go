package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSearchResults MsgKind = iota
	MsgRecommendations
	MsgProgressUpdate
	MsgSubmitted
)

type searchResults struct {
	query  string
	tracks []models.PlaylistTrack
	err    error
}

type recommendations struct {
	query  services.RecommendationQuery
	tracks []models.PlaylistTrack
	err    error
}

type submitted struct {
	created *services.CreatedPlaylist
	err     error
}

// searchResultsMsg is the constructor for [MsgSearchResults]
func searchResultsMsg(query string, tracks []models.PlaylistTrack, err error) Msg {
	return Msg{kind: MsgSearchResults, data: searchResults{query, tracks, err}}
}

// recommendationsMsg is the constructor for [MsgRecommendations]
func recommendationsMsg(q services.RecommendationQuery, tracks []models.PlaylistTrack, err error) Msg {
	return Msg{kind: MsgRecommendations, data: recommendations{q, tracks, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// submittedMsg is the constructor for [MsgSubmitted]
func submittedMsg(created *services.CreatedPlaylist, err error) Msg {
	return Msg{kind: MsgSubmitted, data: submitted{created, err}}
}

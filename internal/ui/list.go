package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/models"
)

var (
	_ list.Item = trackItem{}
)

// trackItem wraps [models.PlaylistTrack] to implement [list.Item]. Seeds are starred.
type trackItem struct {
	track models.PlaylistTrack
	seed  bool
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string {
	if i.seed {
		return "★ " + i.track.Name
	}
	return i.track.Name
}

func (i trackItem) Description() string {
	desc := strings.Join(i.track.Artists, ", ")
	if i.track.AlbumName != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.AlbumName)
	}
	if mood := formatter.MoodSummary(&i.track.AudioFeatures); mood != "" {
		desc = fmt.Sprintf("%s • %s", desc, mood)
	}
	return desc
}

// newTrackList builds a list without its own quit, filter and help handling; the model owns those keys.
func newTrackList(title string, width, height int) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

// trackItems wraps tracks, starring those whose id is in seeds.
func trackItems(tracks []models.PlaylistTrack, isSeed func(id string) bool) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, seed: isSeed(t.ID)}
	}
	return items
}

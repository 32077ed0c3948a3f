// package curation holds the curation state and the pure reducer that drives it
package curation

import (
	"github.com/desertthunder/mixtape/internal/features"
	"github.com/desertthunder/mixtape/internal/models"
)

// MaxTrackSeeds is the most seeds the recommendation endpoint accepts.
const MaxTrackSeeds = 5

// State is the single source of truth for a curation session. It is never persisted.
//
// Treat values as immutable: [Reduce] always returns fresh slices and never writes through the ones it is given.
type State struct {
	TrackSeeds       []models.TrackSeed
	AudioFeatures    models.AudioFeatures
	PlaylistTracks   []models.PlaylistTrack
	HasNewTrackSeeds bool
}

// SeedIDs returns the seed ids in selection order.
func (s State) SeedIDs() []string {
	ids := make([]string, len(s.TrackSeeds))
	for i, seed := range s.TrackSeeds {
		ids[i] = seed.ID
	}
	return ids
}

// TrackURIs returns the playlist track uris in order.
func (s State) TrackURIs() []string {
	uris := make([]string, len(s.PlaylistTracks))
	for i, t := range s.PlaylistTracks {
		uris[i] = t.URI
	}
	return uris
}

func (s State) HasSeed(id string) bool {
	return seedIndex(s.TrackSeeds, id) >= 0
}

func (s State) HasTrack(id string) bool {
	return trackIndex(s.PlaylistTracks, id) >= 0
}

// Action is a state transition. The set of actions is closed: only types in this package implement it.
type Action interface {
	reduce(State) State
}

// Reduce applies a to s. An action whose precondition does not hold returns s unchanged.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.reduce(s)
}

// SelectTrackSeed adds a seed when it is new and fewer than [MaxTrackSeeds] are selected.
// Targets are cleared so the next recommendation fetch can suggest fresh defaults.
type SelectTrackSeed struct{ Seed models.TrackSeed }

// UnselectTrackSeed removes a selected seed and clears targets.
type UnselectTrackSeed struct{ Seed models.TrackSeed }

// SetAudioFeatures replaces every target at once. Values are clamped to their domain.
type SetAudioFeatures struct{ Features models.AudioFeatures }

// ReplacePlaylistTracks replaces the playlist, keeping order and the first occurrence of each id.
type ReplacePlaylistTracks struct{ Tracks []models.PlaylistTrack }

// AddPlaylistTrack puts a track not yet in the playlist at the front.
type AddPlaylistTrack struct{ Track models.PlaylistTrack }

// RemovePlaylistTrack removes a track by id.
type RemovePlaylistTrack struct{ Track models.PlaylistTrack }

func (a SelectTrackSeed) reduce(s State) State {
	if s.HasSeed(a.Seed.ID) || len(s.TrackSeeds) >= MaxTrackSeeds {
		return s
	}

	seeds := make([]models.TrackSeed, 0, len(s.TrackSeeds)+1)
	seeds = append(seeds, s.TrackSeeds...)
	s.TrackSeeds = append(seeds, a.Seed)
	s.AudioFeatures = models.AudioFeatures{}
	s.HasNewTrackSeeds = true
	return s
}

func (a UnselectTrackSeed) reduce(s State) State {
	idx := seedIndex(s.TrackSeeds, a.Seed.ID)
	if idx < 0 {
		return s
	}

	seeds := make([]models.TrackSeed, 0, len(s.TrackSeeds)-1)
	seeds = append(seeds, s.TrackSeeds[:idx]...)
	s.TrackSeeds = append(seeds, s.TrackSeeds[idx+1:]...)
	s.AudioFeatures = models.AudioFeatures{}
	s.HasNewTrackSeeds = true
	return s
}

func (a SetAudioFeatures) reduce(s State) State {
	s.AudioFeatures = features.Clamp(a.Features)
	s.HasNewTrackSeeds = false
	return s
}

func (a ReplacePlaylistTracks) reduce(s State) State {
	tracks := make([]models.PlaylistTrack, 0, len(a.Tracks))
	seen := make(map[string]bool, len(a.Tracks))
	for _, t := range a.Tracks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		tracks = append(tracks, t)
	}
	s.PlaylistTracks = tracks
	return s
}

func (a AddPlaylistTrack) reduce(s State) State {
	if s.HasTrack(a.Track.ID) {
		return s
	}

	tracks := make([]models.PlaylistTrack, 0, len(s.PlaylistTracks)+1)
	tracks = append(tracks, a.Track)
	s.PlaylistTracks = append(tracks, s.PlaylistTracks...)
	return s
}

func (a RemovePlaylistTrack) reduce(s State) State {
	idx := trackIndex(s.PlaylistTracks, a.Track.ID)
	if idx < 0 {
		return s
	}

	tracks := make([]models.PlaylistTrack, 0, len(s.PlaylistTracks)-1)
	tracks = append(tracks, s.PlaylistTracks[:idx]...)
	s.PlaylistTracks = append(tracks, s.PlaylistTracks[idx+1:]...)
	return s
}

func seedIndex(seeds []models.TrackSeed, id string) int {
	for i, seed := range seeds {
		if seed.ID == id {
			return i
		}
	}
	return -1
}

func trackIndex(tracks []models.PlaylistTrack, id string) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

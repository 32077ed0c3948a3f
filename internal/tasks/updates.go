package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a multi-request operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Batch Phase = iota
	FetchAudioFeatures
	FetchPlaylistTracks
	CreatePlaylist
	AppendTracks
	RecordPlaylist
)

func (p Phase) String() string {
	switch p {
	case Batch:
		return "batch"
	case FetchAudioFeatures:
		return "fetch_audio_features"
	case FetchPlaylistTracks:
		return "fetch_playlist_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AppendTracks:
		return "append_tracks"
	case RecordPlaylist:
		return "record_playlist"
	default:
		return ""
	}
}

// SendProgress delivers update without blocking. Updates are dropped when nobody is listening.
func SendProgress(ch chan<- ProgressUpdate, update ProgressUpdate) {
	if ch == nil {
		return
	}
	select {
	case ch <- update:
	default:
	}
}

func batchRequestUpdate(phase Phase, step, total int, req Request) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, req),
	}
}

// CreatePlaylistUpdate reports that the external playlist exists.
func CreatePlaylistUpdate(name, url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s", name),
		Data:    url,
	}
}

// RecordPlaylistUpdate reports that the playlist was written to the store.
func RecordPlaylistUpdate(recordID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordPlaylist,
		Step:    1,
		Total:   1,
		Message: "Playlist recorded",
		Data:    recordID,
	}
}

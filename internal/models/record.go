package models

import (
	"fmt"
	"time"
)

var _ Model = (*PlaylistRecord)(nil)

// PlaylistRecord is one row per playlist created through a successful submission.
type PlaylistRecord struct {
	id         string
	sequence   int
	externalID string
	creatorID  string
	createdAt  time.Time
}

// NewPlaylistRecord creates a record for externalID stamped with the current time.
func NewPlaylistRecord(id string, sequence int, externalID, creatorID string) *PlaylistRecord {
	return &PlaylistRecord{
		id:         id,
		sequence:   sequence,
		externalID: externalID,
		creatorID:  creatorID,
		createdAt:  time.Now().UTC(),
	}
}

// RestorePlaylistRecord rebuilds a record read from storage.
func RestorePlaylistRecord(id string, sequence int, externalID, creatorID string, createdAt time.Time) *PlaylistRecord {
	return &PlaylistRecord{
		id:         id,
		sequence:   sequence,
		externalID: externalID,
		creatorID:  creatorID,
		createdAt:  createdAt,
	}
}

func (r *PlaylistRecord) ID() string           { return r.id }
func (r *PlaylistRecord) Sequence() int        { return r.sequence }
func (r *PlaylistRecord) ExternalID() string   { return r.externalID }
func (r *PlaylistRecord) CreatorID() string    { return r.creatorID }
func (r *PlaylistRecord) CreatedAt() time.Time { return r.createdAt }

func (r *PlaylistRecord) Validate() error {
	if r.id == "" {
		return fmt.Errorf("playlist record id is required")
	}
	if r.externalID == "" {
		return fmt.Errorf("playlist record external id is required")
	}
	if r.sequence <= 0 {
		return fmt.Errorf("playlist record sequence must be positive, got %d", r.sequence)
	}
	return nil
}

// package models defines the data model for mixtape curation
package models

import (
	"context"
	"time"
)

// Model defines the base interface for persistent records.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// PageQuery selects a page of records, newest first.
//
// Cursor is the id of the last record of the previous page (exclusive). Empty starts from the newest record.
// A non-empty CreatorID restricts the page to records created by that user.
type PageQuery struct {
	Limit     int
	Cursor    string
	CreatorID string
}

// PlaylistStore is the append-only store of playlists this application created.
//
// There are deliberately no update or delete operations.
type PlaylistStore interface {
	Append(ctx context.Context, externalID, creatorID string) (*PlaylistRecord, error) // Append records a newly created external playlist
	Page(ctx context.Context, q PageQuery) ([]*PlaylistRecord, error)                  // Page returns up to q.Limit records in creation-descending order
	Count(ctx context.Context, creatorID string) (int, error)                          // Count returns the number of records, optionally for one creator
}

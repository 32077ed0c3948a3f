// Package models defines the domain types shared by the curation core, the catalog client and the store.
//
// Value types flow between components unchanged:
//   - [TrackSeed] : recommendation input picked from search results
//   - [PlaylistTrack] : a full track with optional [AudioFeatures]
//   - [AudioFeatures] : partial mood attributes on a 0-100 scale, tempo in BPM
//
// [PlaylistRecord] is the only persisted entity. It implements [Model] and is written through a [PlaylistStore],
// an append-only contract with cursor pagination ordered by creation time, newest first.
package models

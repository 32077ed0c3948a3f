// Package repositories implements SQLite persistence for the records of playlists this application created.
//
// Records are append-only: there are no update or delete operations. Each record carries a uuid, the external
// playlist id, the creating user and a sequence number drawn from a dedicated sequence table in the same
// transaction as the insert, so the sequence is a strict creation order.
//
// [PlaylistRepository] implements [models.PlaylistStore]:
//   - Append : records a newly created external playlist
//   - Page : newest first, with an exclusive cursor equal to the id of the last record seen
//   - Count : number of records, optionally for one creator
package repositories

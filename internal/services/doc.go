// Package services defines the [Catalog] interface for the external music catalog and implements it for Spotify.
//
// # Sessions
//
// [SpotifyService] holds no user state. Every operation receives a [session.Session] and asks it for a bearer
// token per request, so a single service serves the CLI, the TUI and every web session.
//
// # Batching
//
// Bulk endpoints take at most 100 ids or uris per request. Lookups and appends above that are split into pages
// and run through a [tasks.Sequencer]: strictly one at a time, in order, aborting on the first failure.
//
// # Scales
//
// Audio features are exchanged with callers on a 0-100 scale (tempo in BPM). Conversion to and from Spotify's
// 0.0-1.0 scale happens only at this boundary, via the features package.
//
// # Error Handling
//
//   - [shared.ValidationError] : input rejected before any request
//   - [shared.ErrNotAuthenticated] : the session could not supply a token, or Spotify answered 401
//   - [UpstreamError] : any other non-success response, with status and Spotify's message
//   - [PartialCreationError] : the playlist exists on Spotify but appending tracks or recording it failed
//
// Nothing is retried. [SpotifyService.CreatePlaylist] is not idempotent: calling it again creates a second playlist.
package services

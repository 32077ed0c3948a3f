// Package server provides HTTP routing, middleware, and OAuth handling for the CLI login and the JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// Routes may carry extra middleware of their own, applied inside the router-wide stack.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method-qualified patterns.
//
// # OAuth Callback Handler
//
// OAuthHandler serves the redirect of a one-shot CLI login. It validates the state parameter, exchanges the
// authorization code through an [Exchanger], and sends the result through a channel.
//
// It only processes one callback.
//
// # JSON API
//
// [New] builds the `mixtape serve` service:
//
//	GET  /health
//	GET  /auth/login          redirect to Spotify with a state cookie
//	GET  /auth/callback       exchange the code and issue the session cookie (path follows the redirect URI)
//	POST /auth/logout
//	GET  /api/search          q, offset, limit
//	GET  /api/recommendations seed (repeatable), limit, one param per target feature
//	GET  /api/playlists       limit, cursor, creator_only
//	POST /api/playlists       {uris, name, description, public}
//
// /api routes need the session cookie. Sessions are cached per login by [SessionCache] so access tokens refresh
// once per expiry.
//
// Errors are written as {"error": msg}; see [StatusFor] for the status mapping. A partially created playlist
// also reports playlist_url so the client can link to it instead of retrying.
//
// Only /api/search may be cached (private, server.search_cache_seconds). Everything else under /api is no-store.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

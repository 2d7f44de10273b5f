// Package server provides HTTP routing, middleware, and the local preview server.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [BasicRouter] uses [http.ServeMux] method patterns, and [Middleware] added first runs outermost.
//
// Custom handlers implement [Handler], which adds the list of routes they own so that
// route definitions stay with the implementation.
//
// # Preview Server
//
// `ptb qr watch --serve` renders each regenerated QR code into a [staging.Store] and points a
// [PreviewHandler] at the newest handle. A browser tab on the served page refreshes the image
// whenever the generation counter moves. [Serve] shuts the listener down when the watch ends.
package server

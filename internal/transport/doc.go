// Package transport builds the HTTP clients the crawler fetches pages with.
//
// By default requests go out directly. WithProxy routes every connection
// through a SOCKS5 proxy (golang.org/x/net/proxy), and EmbeddedTor starts a
// private Tor daemon through tornago whose SOCKS port can be used as that
// proxy. Configured headers and a cookie are injected into every request,
// redirects included.
package transport

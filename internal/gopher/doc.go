// Package gopher implements the Gopher protocol exchange used by the crawler.
//
// The protocol is line-oriented and selector-based: the client sends a
// selector terminated by CRLF over a raw TCP connection, and the server
// responds with an arbitrary-length byte stream terminated by closing the
// connection. There is no length prefix and no explicit end marker the
// client is required to recognize.
//
// # Components
//
//   - Client: sends a request and reads the full response under a timeout
//     and a size ceiling. It classifies failures into sentinel errors and
//     keeps no error state of its own.
//   - Parser: decodes a raw response into an ordered sequence of typed
//     directory entries. Pure transformation, no I/O.
//   - Prober: answers "is this server reachable" with a connect-only probe.
//
// All network components dial through a proxy.Dialer, so a SOCKS5 proxy
// (e.g. a local Tor daemon for .onion gopher holes) can be swapped in
// without touching protocol logic.
package gopher

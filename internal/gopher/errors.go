package gopher

import "errors"

// Transport error taxonomy.
//
// Design decision: We define sentinel errors rather than wrapping all
// failures generically so the orchestrator and tests can distinguish
// failure modes with errors.Is() while the recorded message stays
// human-readable. The client only classifies and returns; recording
// errors into crawl statistics is the caller's job.
var (
	// ErrConnectionFailed is returned when a connection cannot be
	// established for any reason other than an active refusal or a
	// timeout (unknown host, unreachable network, proxy failure).
	ErrConnectionFailed = errors.New("cannot connect to server")

	// ErrConnectionRefused is returned when the peer actively rejects
	// the connection attempt.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrTimeout is returned when the connection or a read exceeds the
	// configured timeout with no data.
	ErrTimeout = errors.New("connection timed out")

	// ErrResponseTooLarge is returned when the accumulated response
	// exceeds the size ceiling. No partial data is returned.
	ErrResponseTooLarge = errors.New("response exceeded size limit")

	// ErrInvalidProxyAddress is returned when a SOCKS5 proxy address is
	// not in "host:port" form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

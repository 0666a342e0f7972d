package model

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// MaxPort is the largest valid TCP port number.
const MaxPort = 65535

// Endpoint identifies a Gopher server as a (host, port) pair.
// It is immutable once constructed; all derived keys are computed on demand.
type Endpoint struct {
	// Host is the server hostname or IP address.
	Host string `json:"host"`

	// Port is the server TCP port in [0, 65535].
	Port int `json:"port"`
}

// NewEndpoint creates an Endpoint after validating the port range.
func NewEndpoint(host string, port int) (Endpoint, error) {
	if host == "" {
		return Endpoint{}, ErrEmptyHost
	}
	if port < 0 || port > MaxPort {
		return Endpoint{}, fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	return Endpoint{Host: host, Port: port}, nil
}

// ParseTarget parses a "host" or "host:port" target string.
// When no port is given, defaultPort is used.
func ParseTarget(target string, defaultPort int) (Endpoint, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return Endpoint{}, ErrEmptyHost
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// No port component; treat the whole string as a host.
		return NewEndpoint(target, defaultPort)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrInvalidPort, portStr)
	}
	return NewEndpoint(host, port)
}

// Key returns the canonical "host:port" form used for external-server
// bookkeeping and persisted resource rows.
func (e Endpoint) Key() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// PathKey returns the canonical key for a (endpoint, selector) pair.
// This is the visited-set membership key: the same resource referenced
// from multiple listings always produces the same PathKey.
func (e Endpoint) PathKey(selector string) string {
	return fmt.Sprintf("%s:%d%s", e.Host, e.Port, selector)
}

// Addr returns the dialable network address for this endpoint.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// String returns the human-readable "host:port" form.
func (e Endpoint) String() string {
	return e.Key()
}

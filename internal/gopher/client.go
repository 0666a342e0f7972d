package gopher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/proxy"

	"github.com/gopherscan/gopherscan/internal/model"
)

// Default transport limits. The response ceiling guards against servers
// that stream data indefinitely; with no length field in the protocol,
// the only other termination signal is connection close.
const (
	// DefaultTimeout bounds the connect and the whole read of one request.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxResponseSize is the response size ceiling in bytes.
	DefaultMaxResponseSize = 1 << 20 // 1MiB

	// readChunkSize is the per-read buffer size.
	readChunkSize = 1024
)

// Client performs Gopher request/response exchanges over raw TCP.
// It knows nothing of protocol semantics beyond "selector out, bytes in";
// listing interpretation belongs to the Parser.
//
// A Client is safe for reuse across requests. It holds no per-request
// state and no error state.
type Client struct {
	// dialer establishes TCP connections, directly or through SOCKS5.
	dialer proxy.Dialer

	// timeout bounds the connect and the full response read.
	timeout time.Duration

	// maxResponseSize is the response size ceiling in bytes.
	maxResponseSize int64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithMaxResponseSize sets the response size ceiling in bytes.
func WithMaxResponseSize(size int64) Option {
	return func(c *Client) {
		c.maxResponseSize = size
	}
}

// WithDialer replaces the dialer used to open connections.
// This is how a SOCKS5 proxy dialer is injected; tests can also use it
// to point the client at fakes.
func WithDialer(dialer proxy.Dialer) Option {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// NewClient creates a Client that dials directly.
func NewClient(opts ...Option) *Client {
	c := &Client{
		dialer:          &net.Dialer{},
		timeout:         DefaultTimeout,
		maxResponseSize: DefaultMaxResponseSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewSOCKS5Client creates a Client that dials through the SOCKS5 proxy at
// proxyAddress ("host:port"). Tor's SOCKS port typically requires no auth,
// so none is configured.
func NewSOCKS5Client(proxyAddress string, opts ...Option) (*Client, error) {
	dialer, err := socks5Dialer(proxyAddress)
	if err != nil {
		return nil, err
	}

	opts = append([]Option{WithDialer(dialer)}, opts...)
	return NewClient(opts...), nil
}

// socks5Dialer builds a SOCKS5 dialer after validating the address form.
func socks5Dialer(proxyAddress string) (proxy.Dialer, error) {
	host, port, err := net.SplitHostPort(proxyAddress)
	if err != nil || host == "" || port == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, proxyAddress)
	}

	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	return dialer, nil
}

// Fetch sends the selector to the endpoint and reads the full response.
//
// The request is the selector followed by CRLF; the response runs until
// the peer closes the connection. If the accumulated response exceeds the
// size ceiling, Fetch aborts and returns ErrResponseTooLarge with no
// partial data. Connection failures are classified into the package's
// sentinel errors so callers can record them uniformly.
func (c *Client) Fetch(ctx context.Context, endpoint model.Endpoint, selector string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := dialContext(ctx, c.dialer, endpoint.Addr())
	if err != nil {
		return nil, classifyError(err)
	}
	defer conn.Close()

	// One deadline covers the write and the whole read loop.
	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	if _, err := io.WriteString(conn, selector+"\r\n"); err != nil {
		return nil, classifyError(err)
	}

	var response bytes.Buffer
	buf := make([]byte, readChunkSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			response.Write(buf[:n])
			if int64(response.Len()) > c.maxResponseSize {
				return nil, fmt.Errorf("%w: %d bytes", ErrResponseTooLarge, c.maxResponseSize)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, classifyError(err)
		}
	}

	return response.Bytes(), nil
}

// dialContext dials through a proxy.Dialer while respecting context
// cancellation. proxy.Dialer has no context-aware method, so the dial
// runs in a goroutine and the stray connection is closed if the context
// wins the race.
func dialContext(ctx context.Context, dialer proxy.Dialer, address string) (net.Conn, error) {
	type dialResult struct {
		conn net.Conn
		err  error
	}

	resultCh := make(chan dialResult, 1)

	go func() {
		conn, err := dialer.Dial("tcp", address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if result := <-resultCh; result.conn != nil {
				result.conn.Close()
			}
		}()
		return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	case result := <-resultCh:
		return result.conn, result.err
	}
}

// classifyError maps a raw network error onto the sentinel taxonomy.
func classifyError(err error) error {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrResponseTooLarge),
		errors.Is(err, ErrConnectionRefused), errors.Is(err, ErrConnectionFailed):
		return err
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w: %v", ErrConnectionRefused, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	// SOCKS5 dial failures arrive as plain errors; a refused message in
	// the chain still classifies as a refusal.
	if strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf("%w: %v", ErrConnectionRefused, err)
	}

	return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
}

package gopher

import (
	"context"
	"net"
	"time"

	"golang.org/x/net/proxy"

	"github.com/gopherscan/gopherscan/internal/model"
)

// DefaultProbeTimeout is the fixed probe timeout. It is deliberately
// independent of the fetch timeout: a probe only answers reachability,
// so it can give up sooner.
const DefaultProbeTimeout = 3 * time.Second

// Prober answers whether a server accepts TCP connections.
// It is used for listing entries that point outside the crawl origin;
// those servers are never crawled, only probed once for liveness.
type Prober struct {
	// dialer establishes connections, directly or through SOCKS5.
	dialer proxy.Dialer

	// timeout bounds one probe attempt.
	timeout time.Duration
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithProbeTimeout sets the probe timeout.
func WithProbeTimeout(timeout time.Duration) ProberOption {
	return func(p *Prober) {
		p.timeout = timeout
	}
}

// WithProberDialer replaces the dialer used for probes.
func WithProberDialer(dialer proxy.Dialer) ProberOption {
	return func(p *Prober) {
		p.dialer = dialer
	}
}

// NewProber creates a Prober that dials directly.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		dialer:  &net.Dialer{},
		timeout: DefaultProbeTimeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Probe attempts a bare connection to the endpoint and reports success.
// Every failure cause (refusal, timeout, DNS failure) folds into false;
// the probe does not distinguish them and does not retry.
func (p *Prober) Probe(ctx context.Context, endpoint model.Endpoint) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := dialContext(ctx, p.dialer, endpoint.Addr())
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

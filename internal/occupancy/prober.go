package occupancy

import (
	"context"
	"fmt"
	"net"
	"time"
)

// probeTimeout bounds a single reachability check. Shorter than the
// connect timeout: the probe exists to fail fast.
const probeTimeout = 3 * time.Second

// Prober checks whether the broker is reachable before a connection
// attempt is made. Connect and the reconnection supervisor skip attempts
// against an unreachable broker instead of burning a full connect timeout.
type Prober interface {
	Probe(ctx context.Context) error
}

// TCPProber probes reachability by opening and immediately closing a TCP
// connection to the broker address.
type TCPProber struct {
	addr    string
	timeout time.Duration
}

// NewTCPProber creates a prober for the given broker host and port.
func NewTCPProber(host string, port int) *TCPProber {
	return &TCPProber{
		addr:    net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		timeout: probeTimeout,
	}
}

// Probe implements Prober.
func (p *TCPProber) Probe(ctx context.Context) error {
	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return fmt.Errorf("broker unreachable at %s: %w", p.addr, err)
	}
	return conn.Close()
}

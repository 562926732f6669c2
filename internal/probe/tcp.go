package probe

import (
	"context"
	"net"
	"time"

	"github.com/hamed0406/netwatch/internal/domain"
)

// TCPPinger measures the time to complete a TCP handshake. Useful where ICMP
// is filtered. Targets without a port use DefaultPort.
type TCPPinger struct {
	DefaultPort string
	dialer      net.Dialer
}

func NewTCPPinger(port string) *TCPPinger {
	if port == "" {
		port = "443"
	}
	return &TCPPinger{DefaultPort: port}
}

func (p *TCPPinger) Probe(ctx context.Context, target domain.Target) domain.ProbeOutcome {
	address := string(target)
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, p.DefaultPort)
	}

	started := time.Now()
	conn, err := p.dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return domain.NoResponse()
	}
	rtt := time.Since(started)
	_ = conn.Close()
	return domain.Responded(rtt)
}

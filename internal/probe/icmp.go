package probe

import (
	"bytes"
	"context"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/hamed0406/netwatch/internal/domain"
)

const (
	protocolICMP     = 1
	protocolIPv6ICMP = 58
)

// ICMPPinger sends echo requests over unprivileged datagram ICMP sockets.
// On Linux this needs net.ipv4.ping_group_range to include the process group.
type ICMPPinger struct {
	Resolver *net.Resolver
	seq      atomic.Uint32
	payload  []byte
}

func NewICMPPinger() *ICMPPinger {
	return &ICMPPinger{
		Resolver: net.DefaultResolver,
		payload:  []byte("netwatch-echo"),
	}
}

func (p *ICMPPinger) Probe(ctx context.Context, target domain.Target) domain.ProbeOutcome {
	ip, err := resolveIP(ctx, p.Resolver, string(target))
	if err != nil {
		return domain.NoResponse()
	}
	rtt, err := p.echo(ctx, ip)
	if err != nil {
		return domain.NoResponse()
	}
	return domain.Responded(rtt)
}

func (p *ICMPPinger) echo(ctx context.Context, ip net.IP) (time.Duration, error) {
	network, laddr, proto := "udp4", "0.0.0.0", protocolICMP
	var reqType, replyType icmp.Type = ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply
	if ip.To4() == nil {
		network, laddr, proto = "udp6", "::", protocolIPv6ICMP
		reqType, replyType = ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply
	}

	conn, err := icmp.ListenPacket(network, laddr)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	seq := int(p.seq.Add(1) & 0xffff)
	msg := icmp.Message{
		Type: reqType,
		Body: &icmp.Echo{ID: os.Getpid() & 0xffff, Seq: seq, Data: p.payload},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	if _, err := conn.WriteTo(wb, &net.UDPAddr{IP: ip}); err != nil {
		return 0, err
	}

	rb := make([]byte, 1500)
	for {
		n, _, err := conn.ReadFrom(rb)
		if err != nil {
			return 0, err
		}
		rm, err := icmp.ParseMessage(proto, rb[:n])
		if err != nil || rm.Type != replyType {
			continue
		}
		// the kernel rewrites the echo ID on datagram sockets, so match on seq and payload
		echo, ok := rm.Body.(*icmp.Echo)
		if !ok || echo.Seq != seq || !bytes.Equal(echo.Data, p.payload) {
			continue
		}
		return time.Since(start), nil
	}
}

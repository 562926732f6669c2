package probe

import (
	"context"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/hamed0406/netwatch/internal/domain"
)

func TestParseLatency(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"64 bytes from 10.0.0.1: icmp_seq=1 ttl=64 time=42.0 ms", 42 * time.Millisecond, true},
		{"64 bytes from 1.1.1.1: icmp_seq=1 ttl=57 time=12.345 ms", 12345 * time.Microsecond, true},
		{"Reply from 10.0.0.1: bytes=32 time<1ms TTL=128", time.Millisecond, true},
		{"Reply from 10.0.0.1: bytes=32 time=7ms TTL=128", 7 * time.Millisecond, true},
		{"Request timeout for icmp_seq 0", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseLatency([]byte(c.in))
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseLatency(%q)=(%v,%v) want (%v,%v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestPingArgs(t *testing.T) {
	cases := []struct {
		goos string
		wait time.Duration
		want []string
	}{
		{"linux", 2 * time.Second, []string{"-c", "1", "-W", "2", "h"}},
		{"linux", 1500 * time.Millisecond, []string{"-c", "1", "-W", "2", "h"}},
		{"linux", 10 * time.Millisecond, []string{"-c", "1", "-W", "1", "h"}},
		{"darwin", 3 * time.Second, []string{"-c", "1", "-t", "3", "h"}},
		{"windows", 1500 * time.Millisecond, []string{"-n", "1", "-w", "1500", "h"}},
	}
	for _, c := range cases {
		if got := pingArgs(c.goos, "h", c.wait); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("pingArgs(%s,%v)=%v want %v", c.goos, c.wait, got, c.want)
		}
	}
}

func TestExecPinger_MissingBinaryIsNoResponse(t *testing.T) {
	p := &ExecPinger{Binary: "netwatch-definitely-not-a-binary", GOOS: "linux"}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if out := p.Probe(ctx, "127.0.0.1"); out.Responded {
		t.Fatalf("want no response, got %+v", out)
	}
}

func TestExecPinger_ExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if out := NewExecPinger().Probe(ctx, "127.0.0.1"); out.Responded {
		t.Fatalf("want no response on cancelled context, got %+v", out)
	}
}

func TestBounded_ReturnsAtDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := Func(func(ctx context.Context, _ domain.Target) domain.ProbeOutcome {
		<-release // ignores ctx on purpose
		return domain.Responded(time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	out := Bounded(slow).Probe(ctx, "10.0.0.1")
	if out.Responded {
		t.Fatalf("want no response, got %+v", out)
	}
	if el := time.Since(start); el > time.Second {
		t.Fatalf("bounded wait took %v", el)
	}
}

func TestBounded_PassesThroughResult(t *testing.T) {
	fast := Func(func(context.Context, domain.Target) domain.ProbeOutcome {
		return domain.Responded(5 * time.Millisecond)
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out := Bounded(fast).Probe(ctx, "x")
	if !out.Responded || out.Latency != 5*time.Millisecond {
		t.Fatalf("unexpected: %+v", out)
	}
}

func TestBounded_PanicIsNoResponse(t *testing.T) {
	boom := Func(func(context.Context, domain.Target) domain.ProbeOutcome { panic("boom") })
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if out := Bounded(boom).Probe(ctx, "x"); out.Responded {
		t.Fatalf("want no response, got %+v", out)
	}
}

func TestTCPPinger_LocalListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out := NewTCPPinger("").Probe(ctx, domain.Target(ln.Addr().String()))
	if !out.Responded {
		t.Fatalf("want response from local listener")
	}
}

func TestTCPPinger_ClosedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if out := NewTCPPinger("").Probe(ctx, domain.Target(addr)); out.Responded {
		t.Fatalf("want no response from closed port, got %+v", out)
	}
}

func TestResolveIP_Literal(t *testing.T) {
	ip, err := resolveIP(context.Background(), nil, " 10.0.0.1 ")
	if err != nil || ip.String() != "10.0.0.1" {
		t.Fatalf("got %v %v", ip, err)
	}
}

func TestNew_Kinds(t *testing.T) {
	for _, k := range []string{"", "exec", "icmp", "tcp"} {
		if _, err := New(k); err != nil {
			t.Fatalf("New(%q): %v", k, err)
		}
	}
	if _, err := New("carrier-pigeon"); err == nil {
		t.Fatalf("expected error for unknown prober")
	}
}

package probe

import (
	"context"
	"fmt"

	"github.com/hamed0406/netwatch/internal/domain"
)

// Prober performs one reachability check. Implementations report transport
// failures as domain.NoResponse and should honour the context deadline.
type Prober interface {
	Probe(ctx context.Context, target domain.Target) domain.ProbeOutcome
}

// Func adapts a plain function to Prober.
type Func func(ctx context.Context, target domain.Target) domain.ProbeOutcome

func (f Func) Probe(ctx context.Context, target domain.Target) domain.ProbeOutcome {
	return f(ctx, target)
}

// Bounded makes p return by the context deadline even when p itself blocks
// past it. A late result is dropped; a panic inside p counts as no response.
func Bounded(p Prober) Prober {
	return bounded{inner: p}
}

type bounded struct {
	inner Prober
}

func (b bounded) Probe(ctx context.Context, target domain.Target) domain.ProbeOutcome {
	ch := make(chan domain.ProbeOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- domain.NoResponse()
			}
		}()
		ch <- b.inner.Probe(ctx, target)
	}()

	select {
	case out := <-ch:
		if ctx.Err() != nil {
			return domain.NoResponse()
		}
		return out
	case <-ctx.Done():
		return domain.NoResponse()
	}
}

// New builds the prober selected by kind: "exec", "icmp" or "tcp".
func New(kind string) (Prober, error) {
	switch kind {
	case "", "exec":
		return NewExecPinger(), nil
	case "icmp":
		return NewICMPPinger(), nil
	case "tcp":
		return NewTCPPinger(""), nil
	default:
		return nil, fmt.Errorf("unknown prober %q (want exec, icmp or tcp)", kind)
	}
}

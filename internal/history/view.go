package history

import (
	"time"

	"github.com/hamed0406/netwatch/internal/domain"
)

// View is a read-only snapshot handed to renderers.
type View struct {
	order  []domain.Target
	series map[domain.Target][]domain.HistoryEntry
}

// Targets returns the snapshot's targets in first-seen order.
func (v View) Targets() []domain.Target {
	out := make([]domain.Target, len(v.order))
	copy(out, v.order)
	return out
}

func (v View) SeriesFor(t domain.Target) []domain.HistoryEntry {
	s := v.series[t]
	out := make([]domain.HistoryEntry, len(s))
	copy(out, s)
	return out
}

// Len is the number of entries held for t.
func (v View) Len(t domain.Target) int { return len(v.series[t]) }

// Span returns the earliest and latest timestamps across all series.
func (v View) Span() (from, to time.Time, ok bool) {
	for _, s := range v.series {
		if len(s) == 0 {
			continue
		}
		first, last := s[0].At, s[len(s)-1].At
		if !ok || first.Before(from) {
			from = first
		}
		if !ok || last.After(to) {
			to = last
		}
		ok = true
	}
	return from, to, ok
}

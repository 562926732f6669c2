package history

import (
	"sync"

	"github.com/hamed0406/netwatch/internal/domain"
)

// Store keeps a per-target series of classified samples in memory.
// With window == 0 series grow for the life of the process; otherwise
// only the trailing window entries per target are retained.
type Store struct {
	mu     sync.RWMutex
	window int
	series map[domain.Target]*series
	order  []domain.Target
}

type series struct {
	buf   []domain.HistoryEntry
	start int // index of the oldest entry once the ring is full
}

func New(window int) *Store {
	if window < 0 {
		window = 0
	}
	return &Store{
		window: window,
		series: make(map[domain.Target]*series),
	}
}

func (m *Store) Window() int { return m.window }

// Append records e under e.Target.
func (m *Store) Append(e domain.HistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.series[e.Target]
	if s == nil {
		capacity := 64
		if m.window > 0 && m.window < capacity {
			capacity = m.window
		}
		s = &series{buf: make([]domain.HistoryEntry, 0, capacity)}
		m.series[e.Target] = s
		m.order = append(m.order, e.Target)
	}

	if m.window == 0 || len(s.buf) < m.window {
		s.buf = append(s.buf, e)
		return
	}
	s.buf[s.start] = e
	s.start = (s.start + 1) % m.window
}

// SeriesFor returns a chronological copy of the target's entries.
func (m *Store) SeriesFor(t domain.Target) []domain.HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seriesLocked(t)
}

func (m *Store) seriesLocked(t domain.Target) []domain.HistoryEntry {
	s := m.series[t]
	if s == nil {
		return []domain.HistoryEntry{}
	}
	out := make([]domain.HistoryEntry, 0, len(s.buf))
	out = append(out, s.buf[s.start:]...)
	return append(out, s.buf[:s.start]...)
}

// Latest returns the most recent entry for t.
func (m *Store) Latest(t domain.Target) (domain.HistoryEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.series[t]
	if s == nil || len(s.buf) == 0 {
		return domain.HistoryEntry{}, false
	}
	idx := len(s.buf) - 1
	if s.start > 0 {
		idx = s.start - 1
	}
	return s.buf[idx], true
}

// Targets lists every target with at least one entry, in first-append order.
func (m *Store) Targets() []domain.Target {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Target, len(m.order))
	copy(out, m.order)
	return out
}

// View takes a consistent snapshot of all series.
func (m *Store) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v := View{
		order:  make([]domain.Target, len(m.order)),
		series: make(map[domain.Target][]domain.HistoryEntry, len(m.series)),
	}
	copy(v.order, m.order)
	for t := range m.series {
		v.series[t] = m.seriesLocked(t)
	}
	return v
}

package batch2d

import "sync"

// Counters receives per-draw-call diagnostics from renderers.
// After each draw call a renderer reports its name, one draw call and the
// number of primitives drawn.
type Counters interface {
	Add(renderer string, drawCalls, primitives int)
}

// NopCounters discards every report. It is the default collector.
type NopCounters struct{}

// Add implements Counters.
func (NopCounters) Add(string, int, int) {}

// RendererStats holds the totals for one renderer.
type RendererStats struct {
	DrawCalls  int
	Primitives int
}

// Stats is a Counters implementation that keeps running totals per
// renderer name. It is safe for concurrent use so that a frame loop can
// read it from another goroutine.
type Stats struct {
	mu  sync.Mutex
	per map[string]RendererStats
}

// NewStats returns an empty Stats collector.
func NewStats() *Stats {
	return &Stats{per: make(map[string]RendererStats)}
}

// Add implements Counters.
func (s *Stats) Add(renderer string, drawCalls, primitives int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.per == nil {
		s.per = make(map[string]RendererStats)
	}
	r := s.per[renderer]
	r.DrawCalls += drawCalls
	r.Primitives += primitives
	s.per[renderer] = r
}

// DrawCalls returns the total draw calls across all renderers.
func (s *Stats) DrawCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.per {
		n += r.DrawCalls
	}
	return n
}

// Primitives returns the total primitives drawn across all renderers.
func (s *Stats) Primitives() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.per {
		n += r.Primitives
	}
	return n
}

// Snapshot returns a copy of the per-renderer totals.
func (s *Stats) Snapshot() map[string]RendererStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]RendererStats, len(s.per))
	for k, v := range s.per {
		out[k] = v
	}
	return out
}

// Reset clears all totals, typically at the start of a frame.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.per)
}

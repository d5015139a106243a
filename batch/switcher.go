package batch

// Flusher is a renderer that buffers draw calls until Render.
type Flusher interface {
	Render() error
}

var (
	_ Flusher = (*Renderer)(nil)
	_ Flusher = (*CircleRenderer)(nil)
)

// Switcher tracks which renderer is current so that each renderer gets
// contiguous draw calls. Use it when interleaving renderers that share a
// device.
//
//	sw.Use(images)
//	images.DrawImage(...)
//	sw.Use(circles) // flushes images
//	circles.Draw(...)
//	err := sw.Flush()
//
// Switcher is not safe for concurrent use.
type Switcher struct {
	current Flusher
}

// Use makes f current. If another renderer was current, its pending
// commands are drawn first and any error is returned; f becomes current
// regardless.
func (s *Switcher) Use(f Flusher) error {
	if s.current == f {
		return nil
	}
	prev := s.current
	s.current = f
	if prev == nil {
		return nil
	}
	return prev.Render()
}

// Current returns the current renderer, or nil.
func (s *Switcher) Current() Flusher { return s.current }

// Flush draws the pending commands of the current renderer.
func (s *Switcher) Flush() error {
	if s.current == nil {
		return nil
	}
	return s.current.Render()
}

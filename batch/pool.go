package batch

// Pool is a fixed arena of draw commands handed out sequentially.
//
// The pool does not track which commands are in use. Its capacity equals
// the batch capacity, and Reset is called whenever the batch is flushed,
// so a command returned by Get is valid until the next Reset. If Get is
// called more than Cap times without a Reset, it wraps around and reuses
// the oldest slot.
type Pool struct {
	commands []Command
	next     int
}

// NewPool preallocates capacity commands. capacity must be positive.
func NewPool(capacity int) *Pool {
	return &Pool{commands: make([]Command, capacity)}
}

// Get returns the next command slot.
func (p *Pool) Get() *Command {
	if p.next >= len(p.commands) {
		p.next = 0
	}
	c := &p.commands[p.next]
	p.next++
	return c
}

// Reset rewinds the pool so the next Get returns the first slot.
func (p *Pool) Reset() { p.next = 0 }

// Len returns the number of slots handed out since the last Reset.
func (p *Pool) Len() int { return p.next }

// Cap returns the pool capacity.
func (p *Pool) Cap() int { return len(p.commands) }

// Package notify shows one transient notice at a time.
package notify

import (
	"sync"
	"time"
)

// Level is the notice severity.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

// Notice is a visible message.
type Notice struct {
	Level   Level
	Message string
	Shown   time.Time
}

// Banner holds at most one notice. Showing a new notice replaces the current
// one, and each notice is dismissed after the banner's delay.
type Banner struct {
	delay time.Duration
	sink  func(*Notice)

	mu      sync.Mutex
	current *Notice
	timer   *time.Timer
	seq     uint64
}

// NewBanner returns a banner that dismisses after delay. sink, when not nil,
// is called with each shown notice and with nil on dismissal.
func NewBanner(delay time.Duration, sink func(*Notice)) *Banner {
	return &Banner{delay: delay, sink: sink}
}

// Show replaces any visible notice with a new one.
func (b *Banner) Show(level Level, message string) {
	n := &Notice{Level: level, Message: message, Shown: time.Now()}

	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.seq++
	seq := b.seq
	b.current = n
	if b.delay > 0 {
		b.timer = time.AfterFunc(b.delay, func() { b.expire(seq) })
	}
	b.mu.Unlock()

	b.emit(n)
}

// Current returns the visible notice, if any.
func (b *Banner) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Notice{}, false
	}
	return *b.current, true
}

// Dismiss hides the visible notice now.
func (b *Banner) Dismiss() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	had := b.current != nil
	b.current = nil
	b.seq++
	b.mu.Unlock()

	if had {
		b.emit(nil)
	}
}

// expire dismisses the notice identified by seq unless it was replaced.
func (b *Banner) expire(seq uint64) {
	b.mu.Lock()
	if seq != b.seq || b.current == nil {
		b.mu.Unlock()
		return
	}
	b.current = nil
	b.timer = nil
	b.mu.Unlock()

	b.emit(nil)
}

func (b *Banner) emit(n *Notice) {
	if b.sink == nil {
		return
	}
	if n == nil {
		b.sink(nil)
		return
	}
	cp := *n
	b.sink(&cp)
}

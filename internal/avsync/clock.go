// ABOUTME: Shared playback clock cell crossing the audio/render threads
// ABOUTME: Single writer (live audio cursor), many readers (sync monitor, UI)
package avsync

import "sync"

// Clock is a mutex-guarded playback position in milliseconds. The live
// audio cursor writes it coarsely while the render loop and time display
// read it; it is the only mutable state shared between the audio mixer
// goroutine and the main loop.
type Clock struct {
	mu sync.Mutex
	ms int64
}

// NewClock creates a clock at position zero.
func NewClock() *Clock {
	return &Clock{}
}

// Set publishes the current playback position.
func (c *Clock) Set(ms int64) {
	c.mu.Lock()
	c.ms = ms
	c.mu.Unlock()
}

// Now returns the last published playback position.
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

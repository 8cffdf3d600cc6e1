// ABOUTME: Readable cursor over the shared decoded-audio buffer
// ABOUTME: Publishes coarse playback time into the shared clock cell
package media

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/avio-player/avio-go/internal/avsync"
)

// timePublishStride is how many buffer elements pass between playback
// time publications. Coarse on purpose: publishing per sample would put
// a lock acquisition in the mixer's hot path.
const timePublishStride = 4000

// Cursor reads float32 little-endian sample bytes from a DecodedAudio
// buffer starting at an arbitrary element offset. The oto mixer pulls it
// at real-time rate; every 4000 elements it republishes the playback
// position into the shared clock. Exhausted at end of buffer; looping is
// composed on top with Loop.
type Cursor struct {
	audio *DecodedAudio
	pos   int
	clock *avsync.Clock
}

// NewCursor creates a cursor at the given element offset and immediately
// publishes the matching time so reads of the clock right after a seek
// see the target, not a stale position.
func NewCursor(audio *DecodedAudio, startPos int, clock *avsync.Clock) *Cursor {
	if startPos < 0 {
		startPos = 0
	}
	if startPos > len(audio.Samples) {
		startPos = len(audio.Samples)
	}
	clock.Set(audio.SamplePosToMs(startPos))
	return &Cursor{audio: audio, pos: startPos, clock: clock}
}

// Read fills p with f32le sample bytes. Returns io.EOF once the buffer
// is exhausted.
func (c *Cursor) Read(p []byte) (int, error) {
	if c.pos >= len(c.audio.Samples) {
		return 0, io.EOF
	}

	n := 0
	for n+4 <= len(p) && c.pos < len(c.audio.Samples) {
		if c.pos%timePublishStride == 0 {
			c.clock.Set(c.audio.SamplePosToMs(c.pos))
		}
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(c.audio.Samples[c.pos]))
		c.pos++
		n += 4
	}
	return n, nil
}

// Position returns the current element offset.
func (c *Cursor) Position() int {
	return c.pos
}

// Clone duplicates the cursor: shared buffer and clock, independent
// position. Cloning does not republish time.
func (c *Cursor) Clone() *Cursor {
	return &Cursor{audio: c.audio, pos: c.pos, clock: c.clock}
}

// Looping restarts its cursor from offset zero whenever it is exhausted,
// giving an endless sample stream for the output sink.
type Looping struct {
	cur *Cursor
}

// Loop wraps a cursor to repeat indefinitely.
func Loop(c *Cursor) *Looping {
	return &Looping{cur: c}
}

func (l *Looping) Read(p []byte) (int, error) {
	n, err := l.cur.Read(p)
	if err != io.EOF {
		return n, err
	}
	if len(l.cur.audio.Samples) == 0 {
		return n, io.EOF
	}
	l.cur = NewCursor(l.cur.audio, 0, l.cur.clock)
	if n > 0 {
		return n, nil
	}
	return l.cur.Read(p)
}

// ABOUTME: Audio output controller owning the oto sink and live cursor
// ABOUTME: Seeks by replacing the cursor; never re-decodes the buffer
package media

import (
	"fmt"
	"log"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/avio-player/avio-go/internal/avsync"
)

// defaultVolume is applied when a file is opened, before the shell
// pushes its own level.
const defaultVolume = 0.7

// Output owns the platform audio sink for one loaded file. The decoded
// buffer is shared read-only with every cursor; seeking discards the
// live cursor and attaches a fresh one at the computed offset.
type Output struct {
	mu      sync.Mutex
	audio   *DecodedAudio
	clock   *avsync.Clock
	otoCtx  *oto.Context
	player  *oto.Player
	playing bool
	volume  float64
}

// OpenAudio decodes the file's audio stream and starts looping playback
// at the default volume. Returns ErrNoAudioStream (wrapped) when the
// container has no audio; callers degrade to video-only playback.
func OpenAudio(path string) (*Output, error) {
	log.Printf("Loading audio file: %s", path)

	audio, err := LoadAudio(path)
	if err != nil {
		return nil, err
	}

	otoCtx, err := outputContext(audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("media: audio output: %w", err)
	}

	o := &Output{
		audio:   audio,
		clock:   avsync.NewClock(),
		otoCtx:  otoCtx,
		playing: true,
		volume:  defaultVolume,
	}

	cursor := NewCursor(audio, 0, o.clock)
	o.player = otoCtx.NewPlayer(Loop(cursor))
	o.player.SetVolume(o.volume)
	o.player.Play()

	return o, nil
}

// Seek re-anchors playback to targetMs. The old cursor is discarded
// along with any queued samples; play/pause state survives the seek.
func (o *Output) Seek(targetMs int64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	wasPlaying := o.playing

	// Closing the player drops everything queued in the sink.
	if o.player != nil {
		_ = o.player.Close()
	}

	cursor, _ := seekCursor(o.audio, o.clock, targetMs)
	o.player = o.otoCtx.NewPlayer(Loop(cursor))
	o.player.SetVolume(o.volume)

	if wasPlaying {
		o.player.Play()
	}
}

// seekCursor clamps targetMs to the stream, attaches a fresh cursor at
// the matching offset, and publishes the exact clamped target. The
// cursor's own publication is sample-truncated and can land one ms
// short, so the explicit Set afterwards is what makes time reads right
// after a seek return the seek destination.
func seekCursor(audio *DecodedAudio, clock *avsync.Clock, targetMs int64) (*Cursor, int64) {
	if targetMs < 0 {
		targetMs = 0
	}
	if targetMs > audio.DurationMs {
		targetMs = audio.DurationMs
	}

	cursor := NewCursor(audio, audio.MsToSamplePos(targetMs), clock)
	clock.Set(targetMs)
	return cursor, targetMs
}

// CurrentTime returns the last playback position published by the live
// cursor. May lag the sink by up to one publish stride.
func (o *Output) CurrentTime() int64 {
	return o.clock.Now()
}

// Duration returns the decoded stream length in milliseconds.
func (o *Output) Duration() int64 {
	return o.audio.DurationMs
}

// Play resumes playback and records the desired state for seek resume.
func (o *Output) Play() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.playing = true
	if o.player != nil {
		o.player.Play()
	}
}

// Pause suspends playback and records the desired state for seek resume.
func (o *Output) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.playing = false
	if o.player != nil {
		o.player.Pause()
	}
}

// SetVolume sets the sink volume, clamped to [0, 1].
func (o *Output) SetVolume(volume float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	o.volume = volume
	if o.player != nil {
		o.player.SetVolume(volume)
	}
}

// Close stops the sink. Nothing is flushed anywhere durable.
func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil {
		_ = o.player.Close()
		o.player = nil
	}
}

// oto allows a single context per process, so it is created once and
// reused across file replaces. A later file at a different rate plays
// through the device rate that was established first.
var (
	otoSetup  sync.Once
	sharedCtx *oto.Context
	sharedErr error
	setupRate int
)

func outputContext(sampleRate int) (*oto.Context, error) {
	otoSetup.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			sharedErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-readyChan

		sharedCtx = ctx
		setupRate = sampleRate
		log.Printf("Audio output initialized: %dHz, 2 channels", sampleRate)
	})

	if sharedErr != nil {
		return nil, sharedErr
	}
	if sampleRate != setupRate {
		log.Printf("Audio device already open at %dHz, playing %dHz stream at device rate", setupRate, sampleRate)
	}
	return sharedCtx, nil
}

// ABOUTME: Main player orchestration over the video and audio pipelines
// ABOUTME: Owns pacing, seeks, pause state, volume, and the sync monitor
package app

import (
	"fmt"
	"log"
	"time"

	"github.com/avio-player/avio-go/internal/avsync"
	"github.com/avio-player/avio-go/internal/media"
)

// FrameSink receives each decoded RGBA frame. A graphical shell uploads
// it to a texture; the terminal shell leaves it nil.
type FrameSink func(*media.VideoFrame)

// Player drives one media file: it paces decoding to the stream's frame
// rate, keeps audio anchored to video, and exposes the transport
// controls the shell binds keys to. All methods are called from the
// shell's single update loop.
type Player struct {
	video   *media.Video
	audio   *media.Output
	monitor *avsync.Monitor
	sink    FrameSink

	path          string
	paused        bool
	eof           bool
	volume        float64
	frameInterval time.Duration
	lastFrameAt   time.Time
	lastFrame     *media.VideoFrame

	fpsWindowAt time.Time
	fpsFrames   int
	fps         float64
}

// New creates a player with no file loaded.
func New(sink FrameSink) *Player {
	return &Player{
		sink:   sink,
		volume: 0.7,
	}
}

// Load replaces the current file. A file without video cannot be
// played; a file without audio plays video-only.
func (p *Player) Load(path string) error {
	p.closePipelines()

	video, err := media.OpenVideo(path)
	if err != nil {
		return fmt.Errorf("app: load %s: %w", path, err)
	}

	audio, err := media.OpenAudio(path)
	if err != nil {
		log.Printf("No audio playback for %s: %v", path, err)
		audio = nil
	}

	p.video = video
	p.audio = audio
	p.path = path
	p.paused = false
	p.eof = false
	p.lastFrameAt = time.Time{}
	p.lastFrame = nil
	p.fpsWindowAt = time.Time{}
	p.fpsFrames = 0
	p.fps = 0

	p.frameInterval = time.Duration(float64(time.Second) / video.FrameRate())
	if p.frameInterval <= 0 {
		p.frameInterval = time.Second / 30
	}

	if audio != nil {
		p.monitor = avsync.NewMonitor(audio)
		audio.SetVolume(p.volume)
	} else {
		p.monitor = nil
	}
	return nil
}

// Loaded reports whether a file is open.
func (p *Player) Loaded() bool { return p.video != nil }

// Path returns the loaded file path.
func (p *Player) Path() string { return p.path }

// Advance runs one tick of the playback loop: when a frame is due it
// decodes, hands the frame to the sink, and feeds the sync monitor.
// Decode errors are returned but the player stays usable; the next tick
// tries again.
func (p *Player) Advance(now time.Time) error {
	if p.video == nil || p.paused || p.eof {
		return nil
	}
	if !p.lastFrameAt.IsZero() && now.Sub(p.lastFrameAt) < p.frameInterval {
		return nil
	}

	frame, err := p.video.NextFrame()
	if err != nil {
		return fmt.Errorf("app: advance: %w", err)
	}
	if frame == nil {
		log.Printf("End of video stream at %dms", p.video.CurrentTimestampMs())
		p.eof = true
		return nil
	}

	p.lastFrameAt = now
	p.lastFrame = frame
	if p.sink != nil {
		p.sink(frame)
	}
	p.countFrame(now)

	if p.monitor != nil {
		p.monitor.FrameAccepted(p.video.CurrentTimestampMs())
	}
	return nil
}

// countFrame maintains a one-second FPS figure for the shell.
func (p *Player) countFrame(now time.Time) {
	if p.fpsWindowAt.IsZero() {
		p.fpsWindowAt = now
	}
	p.fpsFrames++
	if elapsed := now.Sub(p.fpsWindowAt); elapsed >= time.Second {
		p.fps = float64(p.fpsFrames) / elapsed.Seconds()
		p.fpsFrames = 0
		p.fpsWindowAt = now
	}
}

// SeekTo moves both pipelines to targetMs, clamped to the video
// duration. A failed container seek leaves playback where it was.
func (p *Player) SeekTo(targetMs int64) {
	if p.video == nil {
		return
	}
	if targetMs < 0 {
		targetMs = 0
	}
	if d := p.video.DurationMs(); targetMs > d {
		targetMs = d
	}

	if err := p.video.Seek(targetMs); err != nil {
		log.Printf("Seek failed: %v", err)
		return
	}
	if p.audio != nil {
		p.audio.Seek(targetMs)
	}
	if p.monitor != nil {
		p.monitor.Reset()
	}
	p.eof = false
	p.lastFrameAt = time.Time{}
}

// SeekBy seeks relative to the current video position.
func (p *Player) SeekBy(deltaMs int64) {
	if p.video == nil {
		return
	}
	p.SeekTo(p.video.CurrentTimestampMs() + deltaMs)
}

// TogglePause flips the pause state and mirrors it onto the audio sink.
func (p *Player) TogglePause() {
	if p.video == nil {
		return
	}
	p.paused = !p.paused
	if p.audio == nil {
		return
	}
	if p.paused {
		p.audio.Pause()
	} else {
		p.audio.Play()
	}
}

// Paused reports the pause state.
func (p *Player) Paused() bool { return p.paused }

// AtEnd reports whether the video stream is exhausted.
func (p *Player) AtEnd() bool { return p.eof }

// SetVolume sets the audio volume, clamped to [0, 1]. Remembered across
// file loads.
func (p *Player) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	p.volume = volume
	if p.audio != nil {
		p.audio.SetVolume(volume)
	}
}

// Volume returns the current volume setting.
func (p *Player) Volume() float64 { return p.volume }

// Times returns the current position and the duration, both in
// milliseconds.
func (p *Player) Times() (currentMs, durationMs int64) {
	if p.video == nil {
		return 0, 0
	}
	return p.video.CurrentTimestampMs(), p.video.DurationMs()
}

// FPS returns the measured display rate over the last second.
func (p *Player) FPS() float64 { return p.fps }

// FrameRate returns the stream's nominal frame rate.
func (p *Player) FrameRate() float64 {
	if p.video == nil {
		return 0
	}
	return p.video.FrameRate()
}

// FrameInterval returns the pacing interval between frames.
func (p *Player) FrameInterval() time.Duration {
	if p.frameInterval > 0 {
		return p.frameInterval
	}
	return time.Second / 30
}

// Frame returns the most recently decoded RGBA frame, or nil.
func (p *Player) Frame() *media.VideoFrame { return p.lastFrame }

// HasAudio reports whether the loaded file has a playing audio stream.
func (p *Player) HasAudio() bool { return p.audio != nil }

// Dimensions returns the video frame size.
func (p *Player) Dimensions() (w, h int) {
	if p.video == nil {
		return 0, 0
	}
	return p.video.Width(), p.video.Height()
}

// Close releases both pipelines.
func (p *Player) Close() {
	p.closePipelines()
}

func (p *Player) closePipelines() {
	if p.video != nil {
		p.video.Close()
		p.video = nil
	}
	if p.audio != nil {
		p.audio.Close()
		p.audio = nil
	}
	p.monitor = nil
	p.lastFrame = nil
}

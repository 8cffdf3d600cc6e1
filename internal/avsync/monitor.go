// ABOUTME: Periodic audio/video drift comparator
// ABOUTME: Re-anchors audio to the video clock when drift exceeds a bound
package avsync

import "log"

const (
	// checkInterval is how many accepted video frames pass between
	// drift comparisons.
	checkInterval = 150

	// driftThresholdMs is the largest tolerated |video - audio| gap.
	driftThresholdMs = 200
)

// Transport is the slice of the audio controller the monitor needs:
// reading the audio clock and re-anchoring it.
type Transport interface {
	CurrentTime() int64
	Seek(targetMs int64)
}

// Monitor watches the two playback clocks from inside the frame
// processing cycle. Video is always the master; audio is re-seeked to
// the video position, never the other way around.
type Monitor struct {
	audio  Transport
	frames int
}

// NewMonitor creates a monitor bound to an audio transport.
func NewMonitor(audio Transport) *Monitor {
	return &Monitor{audio: audio}
}

// FrameAccepted records one displayed video frame and, every 150th
// frame, compares the clocks. Returns true when a resync was issued.
// Callers gate this on "audio attached and not paused".
func (m *Monitor) FrameAccepted(videoMs int64) bool {
	m.frames++
	if m.frames%checkInterval != 0 {
		return false
	}

	audioMs := m.audio.CurrentTime()
	drift := videoMs - audioMs
	if drift < 0 {
		drift = -drift
	}
	if drift <= driftThresholdMs {
		return false
	}

	log.Printf("A/V drift %dms (video=%dms audio=%dms), re-anchoring audio", drift, videoMs, audioMs)
	m.audio.Seek(videoMs)
	return true
}

// Reset clears the frame counter, used when a file is replaced.
func (m *Monitor) Reset() {
	m.frames = 0
}

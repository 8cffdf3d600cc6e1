// ABOUTME: Tests for the A/V drift monitor
// ABOUTME: Covers threshold, check cadence, and seek targeting
package avsync

import "testing"

type fakeTransport struct {
	timeMs  int64
	seeks   []int64
}

func (f *fakeTransport) CurrentTime() int64 { return f.timeMs }
func (f *fakeTransport) Seek(ms int64)      { f.seeks = append(f.seeks, ms) }

// advance pushes n accepted frames through the monitor at a fixed video
// clock position.
func advance(m *Monitor, n int, videoMs int64) bool {
	resynced := false
	for i := 0; i < n; i++ {
		if m.FrameAccepted(videoMs) {
			resynced = true
		}
	}
	return resynced
}

func TestResyncOverThreshold(t *testing.T) {
	audio := &fakeTransport{timeMs: 9700}
	m := NewMonitor(audio)

	if !advance(m, 150, 10000) {
		t.Fatal("expected resync with 300ms drift")
	}
	if len(audio.seeks) != 1 || audio.seeks[0] != 10000 {
		t.Errorf("expected one seek to 10000, got %v", audio.seeks)
	}
}

func TestNoResyncWithinThreshold(t *testing.T) {
	audio := &fakeTransport{timeMs: 9850}
	m := NewMonitor(audio)

	if advance(m, 150, 10000) {
		t.Fatal("unexpected resync with 150ms drift")
	}
	if len(audio.seeks) != 0 {
		t.Errorf("expected no seeks, got %v", audio.seeks)
	}
}

func TestExactThresholdDoesNotResync(t *testing.T) {
	audio := &fakeTransport{timeMs: 9800}
	m := NewMonitor(audio)

	if advance(m, 150, 10000) {
		t.Fatal("drift of exactly 200ms must not resync")
	}
}

func TestOnlyEvery150thFrameCompares(t *testing.T) {
	audio := &fakeTransport{timeMs: 0}
	m := NewMonitor(audio)

	if advance(m, 149, 10000) {
		t.Fatal("resync before the 150th frame")
	}
	if !m.FrameAccepted(10000) {
		t.Fatal("150th frame should have compared and resynced")
	}
}

func TestAudioAheadAlsoResyncs(t *testing.T) {
	audio := &fakeTransport{timeMs: 10300}
	m := NewMonitor(audio)

	if !advance(m, 150, 10000) {
		t.Fatal("expected resync when audio runs ahead")
	}
	if audio.seeks[0] != 10000 {
		t.Errorf("audio must be anchored to video time, got %d", audio.seeks[0])
	}
}

func TestResetClearsCadence(t *testing.T) {
	audio := &fakeTransport{timeMs: 0}
	m := NewMonitor(audio)

	advance(m, 100, 5000)
	m.Reset()
	if advance(m, 149, 5000) {
		t.Fatal("reset should restart the 150-frame cadence")
	}
}

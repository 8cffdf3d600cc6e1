// ABOUTME: Tests for the seek-settle state machine
// ABOUTME: Covers target settle, pre-roll skip, and the frame-count valve
package media

import "testing"

func TestIdleEmitsUnconditionally(t *testing.T) {
	var s seekState
	for _, pts := range []int64{0, 1, 500, 999999} {
		d := s.observe(pts)
		if !d.emit || !d.updateMs {
			t.Errorf("idle frame pts=%dms: got %+v, want emit+update", pts, d)
		}
	}
}

func TestSettleOnFrameAtOrPastTarget(t *testing.T) {
	var s seekState
	s.begin(5000)

	// Frames between the keyframe and the target are discarded but
	// still advance the reported position.
	for _, pts := range []int64{4400, 4600, 4800} {
		d := s.observe(pts)
		if d.emit {
			t.Fatalf("frame at %dms emitted before target", pts)
		}
		if !d.updateMs {
			t.Fatalf("frame at %dms should update reported position", pts)
		}
	}

	d := s.observe(5000)
	if !d.emit || !d.updateMs {
		t.Fatalf("frame at target: got %+v, want emit+update", d)
	}
	if s.active() {
		t.Fatal("state machine should be idle after settling")
	}
}

func TestFramePastTargetSettles(t *testing.T) {
	var s seekState
	s.begin(5000)
	if d := s.observe(5040); !d.emit {
		t.Fatal("first frame past target must be emitted")
	}
}

func TestZeroTimestampSkippedDuringSettle(t *testing.T) {
	var s seekState
	s.begin(5000)

	d := s.observe(0)
	if d.emit || d.updateMs {
		t.Fatalf("pre-roll frame: got %+v, want silent skip", d)
	}
	if !s.active() {
		t.Fatal("pre-roll frame must not end settling")
	}

	// Settling still completes normally afterwards.
	if d := s.observe(5100); !d.emit {
		t.Fatal("target frame after pre-roll must settle")
	}
}

func TestSafetyValveAfter300Frames(t *testing.T) {
	var s seekState
	s.begin(1 << 40) // unreachable target

	for i := 0; i < settleFrameLimit; i++ {
		d := s.observe(int64(i + 1))
		if d.emit {
			t.Fatalf("frame %d emitted before the valve", i+1)
		}
	}

	// Frame 301 trips the valve and is emitted regardless of timestamp.
	d := s.observe(301)
	if !d.emit || !d.updateMs {
		t.Fatalf("valve frame: got %+v, want emit+update", d)
	}
	if s.active() {
		t.Fatal("valve must force the machine idle")
	}
}

func TestNewSeekResetsFrameCount(t *testing.T) {
	var s seekState
	s.begin(1 << 40)
	for i := 0; i < 250; i++ {
		s.observe(int64(i + 1))
	}

	s.begin(1 << 40)
	for i := 0; i < settleFrameLimit; i++ {
		if d := s.observe(int64(i + 1)); d.emit {
			t.Fatalf("frame %d after re-seek emitted early", i+1)
		}
	}
}

// ABOUTME: Seek-settle state machine for keyframe-bounded container seeks
// ABOUTME: Discards decoded frames until the target timestamp is reached
package media

// settleFrameLimit bounds how many decoded frames a seek may discard
// before giving up and emitting whatever the decoder produces. Guards
// against streams whose timestamps never reach the target, e.g. sparse
// keyframe spacing. Best-effort, not a correctness guarantee.
const settleFrameLimit = 300

// seekState tracks recovery after a container-level seek. A container
// seek lands at the keyframe at-or-before the target, so the pipeline
// decodes forward, discarding frames, until the true target shows up.
type seekState struct {
	settling bool
	targetMs int64
	frames   int
}

// settleDecision is the verdict for one decoded frame with a valid PTS.
type settleDecision struct {
	emit     bool
	updateMs bool
}

// begin enters the settling state for a new seek target.
func (s *seekState) begin(targetMs int64) {
	s.settling = true
	s.targetMs = targetMs
	s.frames = 0
}

// active reports whether a seek is still settling.
func (s *seekState) active() bool {
	return s.settling
}

// observe evaluates one decoded frame's timestamp (ms) and decides
// whether to emit it and whether it advances the reported position.
// Frames without a PTS must not be passed here; they are discarded
// outright while settling and never count toward the frame bound.
func (s *seekState) observe(ptsMs int64) settleDecision {
	if !s.settling {
		return settleDecision{emit: true, updateMs: true}
	}

	s.frames++
	if s.frames > settleFrameLimit {
		s.settling = false
		return settleDecision{emit: true, updateMs: true}
	}

	// A zero timestamp right after a seek is pre-roll, not content.
	if ptsMs == 0 {
		return settleDecision{}
	}

	if ptsMs >= s.targetMs {
		s.settling = false
		return settleDecision{emit: true, updateMs: true}
	}

	// Still between the keyframe and the target: track position,
	// keep discarding.
	return settleDecision{updateMs: true}
}

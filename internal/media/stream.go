// ABOUTME: AVStream field access not covered by the avformat bindings
// ABOUTME: Reads avg_frame_rate straight from the struct layout
package media

import (
	"unsafe"

	"github.com/nonibytes/ffgo/avformat"
)

// offsetStreamAvgFrameRate is the byte offset of AVRational
// avg_frame_rate within AVStream: av_class(8) + index(4) + id(4) +
// codecpar(8) + priv_data(8) + time_base(8) + start_time(8) +
// duration(8) + nb_frames(8) + disposition(4) + discard(4) +
// sample_aspect_ratio(8) + metadata(8).
const offsetStreamAvgFrameRate = 88

// StreamAvgFrameRate returns the stream's average frame rate as a
// num/den pair. Both are zero when the container does not know it.
func StreamAvgFrameRate(stream avformat.Stream) (num, den int32) {
	if stream == nil {
		return 0, 0
	}
	num = *(*int32)(unsafe.Pointer(uintptr(stream) + offsetStreamAvgFrameRate))
	den = *(*int32)(unsafe.Pointer(uintptr(stream) + offsetStreamAvgFrameRate + 4))
	return
}

// ABOUTME: Video demux/decode pipeline with RGBA conversion and seeking
// ABOUTME: Wraps the FFmpeg stack behind a pull-based NextFrame interface
package media

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"strconv"
	"unsafe"

	"github.com/nonibytes/ffgo/avcodec"
	"github.com/nonibytes/ffgo/avformat"
	"github.com/nonibytes/ffgo/avutil"
	"github.com/nonibytes/ffgo/swscale"

	"github.com/avio-player/avio-go/internal/timebase"
)

// ErrNoVideoStream reports a container without any video stream.
var ErrNoVideoStream = errors.New("media: no video stream")

// defaultFrameRate is assumed when the container reports no usable
// average frame rate.
const defaultFrameRate = 30.0

// VideoFrame is one decoded frame converted to tightly packed RGBA.
type VideoFrame struct {
	Width  int
	Height int
	Buffer []byte
}

// Video decodes the best video stream of a container into RGBA frames.
// Not safe for concurrent use; the player owns it from a single
// goroutine.
type Video struct {
	formatCtx avformat.FormatContext
	codecCtx  avcodec.Context
	scaler    swscale.Context
	packet    avcodec.Packet
	frame     avutil.Frame
	scaled    avutil.Frame

	streamIdx  int
	timeBase   avutil.Rational
	width      int
	height     int
	frameRate  float64
	durationMs int64
	currentMs  int64

	seek seekState
}

// OpenVideo opens the container at path and prepares its best video
// stream for decoding. The decoder is configured to use one thread per
// CPU.
func OpenVideo(path string) (*Video, error) {
	v := &Video{}
	if err := avformat.OpenInput(&v.formatCtx, path, nil, nil); err != nil {
		return nil, fmt.Errorf("media: open %s: %w", path, err)
	}
	if err := avformat.FindStreamInfo(v.formatCtx, nil); err != nil {
		v.Close()
		return nil, fmt.Errorf("media: stream info: %w", err)
	}

	v.streamIdx = int(avformat.FindBestStream(v.formatCtx, avutil.MediaTypeVideo, -1, -1, nil, 0))
	if v.streamIdx < 0 {
		v.Close()
		return nil, ErrNoVideoStream
	}

	stream := avformat.GetStream(v.formatCtx, v.streamIdx)
	tbNum, tbDen := avformat.GetStreamTimeBase(stream)
	v.timeBase = avutil.NewRational(tbNum, tbDen)

	frNum, frDen := StreamAvgFrameRate(stream)
	if frDen != 0 && frNum > 0 {
		v.frameRate = float64(frNum) / float64(frDen)
	} else {
		v.frameRate = defaultFrameRate
	}

	codecPar := avformat.GetStreamCodecPar(stream)
	codec := avcodec.FindDecoder(avformat.GetCodecParCodecID(codecPar))
	if codec == nil {
		v.Close()
		return nil, errors.New("media: video decoder not found")
	}

	v.codecCtx = avcodec.AllocContext3(codec)
	if v.codecCtx == nil {
		v.Close()
		return nil, errors.New("media: failed to allocate video codec context")
	}
	if err := avcodec.ParametersToContext(v.codecCtx, codecPar); err != nil {
		v.Close()
		return nil, fmt.Errorf("media: video codec parameters: %w", err)
	}

	var opts avutil.Dictionary
	avutil.DictSet(&opts, "threads", strconv.Itoa(runtime.NumCPU()), 0)
	err := avcodec.Open2(v.codecCtx, codec, &opts)
	avutil.DictFree(&opts)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("media: open video codec: %w", err)
	}

	v.width = int(avformat.GetCodecParWidth(codecPar))
	v.height = int(avformat.GetCodecParHeight(codecPar))
	if v.width <= 0 || v.height <= 0 {
		v.Close()
		return nil, errors.New("media: video stream has no dimensions")
	}
	pixFmt := avutil.PixelFormat(avformat.GetCodecParFormat(codecPar))

	v.scaler = swscale.GetContext(v.width, v.height, pixFmt,
		v.width, v.height, avutil.PixelFormatRGB24,
		swscale.FlagBilinear, nil, nil, nil)
	if v.scaler == nil {
		v.Close()
		return nil, errors.New("media: failed to create scaler")
	}

	v.packet = avcodec.PacketAlloc()
	v.frame = avutil.FrameAlloc()
	v.scaled = avutil.FrameAlloc()
	if v.packet == nil || v.frame == nil || v.scaled == nil {
		v.Close()
		return nil, errors.New("media: failed to allocate decode buffers")
	}
	avutil.SetFrameWidth(v.scaled, int32(v.width))
	avutil.SetFrameHeight(v.scaled, int32(v.height))
	avutil.SetFrameFormat(v.scaled, int32(avutil.PixelFormatRGB24))
	if err := avutil.FrameGetBufferErr(v.scaled, 0); err != nil {
		v.Close()
		return nil, fmt.Errorf("media: allocate scaled frame: %w", err)
	}

	reported := timebase.ToMillis(avformat.GetDuration(v.formatCtx), timebase.Micros)
	v.durationMs = estimateDuration(reported, v.frameRate, v.scanDuration)

	log.Printf("Opened video: %dx%d @ %.2ffps, duration %dms", v.width, v.height, v.frameRate, v.durationMs)
	return v, nil
}

// estimateDuration returns reportedMs when it is at least ten frame
// intervals long, otherwise falls back to scan. Some containers report
// zero or near-zero durations for streams that are perfectly playable.
func estimateDuration(reportedMs int64, fps float64, scan func() int64) int64 {
	if fps <= 0 {
		fps = defaultFrameRate
	}
	if reportedMs >= int64(1000.0/fps)*10 {
		return reportedMs
	}
	log.Printf("Container reports implausible duration %dms, scanning packets", reportedMs)
	return scan()
}

// scanDuration reads every packet of the video stream to find the
// largest presentation timestamp, then rewinds the demuxer.
func (v *Video) scanDuration() int64 {
	ms := maxPacketTimestamp(func() (int64, bool) {
		for {
			if err := avformat.ReadFrame(v.formatCtx, v.packet); err != nil {
				return 0, false
			}
			idx := int(avcodec.GetPacketStreamIndex(v.packet))
			pts := avcodec.GetPacketPTS(v.packet)
			avcodec.PacketUnref(v.packet)
			if idx != v.streamIdx || pts == avutil.NoPTSValue {
				continue
			}
			return timebase.ToMillis(pts, v.timeBase), true
		}
	})
	if err := avformat.SeekFrame(v.formatCtx, -1, 0, avformat.SeekFlagBackward); err != nil {
		log.Printf("Failed to rewind after duration scan: %v", err)
	}
	return ms
}

// maxPacketTimestamp drains next and returns the largest timestamp seen.
func maxPacketTimestamp(next func() (int64, bool)) int64 {
	var max int64
	for {
		ms, ok := next()
		if !ok {
			return max
		}
		if ms > max {
			max = ms
		}
	}
}

// NextFrame returns the next displayable frame, or (nil, nil) at end of
// stream. While a seek is settling, pre-target frames are decoded and
// discarded so the first emitted frame is at or past the seek target.
func (v *Video) NextFrame() (*VideoFrame, error) {
	for {
		err := avcodec.ReceiveFrame(v.codecCtx, v.frame)
		if err == nil {
			pts := avutil.GetFramePTS(v.frame)
			if pts == avutil.NoPTSValue {
				if v.seek.active() {
					continue
				}
				// Emit without touching the position.
				return v.convertFrame()
			}

			d := v.seek.observe(timebase.ToMillis(pts, v.timeBase))
			if d.updateMs {
				v.currentMs = timebase.ToMillis(pts, v.timeBase)
			}
			if d.emit {
				return v.convertFrame()
			}
			continue
		}
		if !avutil.IsAgain(err) && !avutil.IsEOF(err) {
			return nil, fmt.Errorf("media: receive frame: %w", err)
		}

		if err := avformat.ReadFrame(v.formatCtx, v.packet); err != nil {
			if avutil.IsEOF(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("media: read packet: %w", err)
		}
		if int(avcodec.GetPacketStreamIndex(v.packet)) == v.streamIdx {
			if err := avcodec.SendPacket(v.codecCtx, v.packet); err != nil {
				avcodec.PacketUnref(v.packet)
				return nil, fmt.Errorf("media: send packet: %w", err)
			}
		}
		avcodec.PacketUnref(v.packet)
	}
}

// convertFrame scales the current decoded frame to RGB24 and expands it
// to RGBA.
func (v *Video) convertFrame() (*VideoFrame, error) {
	if err := avutil.FrameMakeWritable(v.scaled); err != nil {
		return nil, fmt.Errorf("media: scaled frame not writable: %w", err)
	}
	if ret := swscale.ScaleFrame(v.scaler, v.scaled, v.frame); ret < 0 {
		return nil, fmt.Errorf("media: scale frame: %w", avutil.NewError(ret, "sws_scale_frame"))
	}

	stride := int(avutil.GetFrameLinesizePlane(v.scaled, 0))
	data := avutil.GetFrameDataPlane(v.scaled, 0)
	if data == nil || stride <= 0 {
		return nil, errors.New("media: scaled frame has no data")
	}
	src := unsafe.Slice((*byte)(data), stride*v.height)

	buf := make([]byte, v.width*v.height*4)
	expandRGBRows(src, stride, v.width, v.height, buf)
	return &VideoFrame{Width: v.width, Height: v.height, Buffer: buf}, nil
}

// Seek repositions the stream so the next emitted frame is at or past
// targetMs. The demuxer lands on the preceding keyframe; the gap is
// closed by decode-and-discard inside NextFrame. On demuxer failure the
// pipeline keeps playing from its current position.
func (v *Video) Seek(targetMs int64) error {
	avcodec.FlushBuffers(v.codecCtx)
	ts := timebase.FromMillis(targetMs, timebase.Micros)
	if err := avformat.SeekFrame(v.formatCtx, -1, ts, avformat.SeekFlagBackward); err != nil {
		return fmt.Errorf("media: seek to %dms: %w", targetMs, err)
	}
	v.seek.begin(targetMs)
	v.currentMs = targetMs
	return nil
}

// CurrentTimestampMs returns the presentation time of the most recently
// emitted frame.
func (v *Video) CurrentTimestampMs() int64 { return v.currentMs }

// DurationMs returns the stream duration in milliseconds.
func (v *Video) DurationMs() int64 { return v.durationMs }

// FrameRate returns the average frame rate in frames per second.
func (v *Video) FrameRate() float64 { return v.frameRate }

// Width returns the frame width in pixels.
func (v *Video) Width() int { return v.width }

// Height returns the frame height in pixels.
func (v *Video) Height() int { return v.height }

// Close releases all FFmpeg resources. Safe to call more than once.
func (v *Video) Close() {
	if v.scaled != nil {
		avutil.FrameFree(&v.scaled)
	}
	if v.frame != nil {
		avutil.FrameFree(&v.frame)
	}
	if v.packet != nil {
		avcodec.PacketFree(&v.packet)
	}
	if v.scaler != nil {
		swscale.FreeContext(v.scaler)
		v.scaler = nil
	}
	if v.codecCtx != nil {
		avcodec.FreeContext(&v.codecCtx)
	}
	if v.formatCtx != nil {
		avformat.CloseInput(&v.formatCtx)
	}
}

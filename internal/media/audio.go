// ABOUTME: Full-file audio decode into one interleaved stereo buffer
// ABOUTME: Trades memory for O(1) random-access seeks during playback
package media

import (
	"errors"
	"fmt"
	"log"
	"time"
	"unsafe"

	"github.com/nonibytes/ffgo/avcodec"
	"github.com/nonibytes/ffgo/avformat"
	"github.com/nonibytes/ffgo/avutil"

	"github.com/avio-player/avio-go/internal/timebase"
)

// ErrNoAudioStream reports a container without any audio stream. The
// player treats this as "run video-only", not as a failure.
var ErrNoAudioStream = errors.New("media: no audio stream")

// DecodedAudio holds an entire audio stream decoded to interleaved
// stereo float32 samples. Immutable once LoadAudio returns; shared
// read-only between the output controller and every live cursor.
type DecodedAudio struct {
	Samples    []float32
	SampleRate int
	DurationMs int64
}

// MsToSamplePos maps a millisecond position to an element offset into
// the interleaved buffer. The result is always even (stereo alignment)
// and clamped to the buffer.
func (d *DecodedAudio) MsToSamplePos(ms int64) int {
	if ms < 0 || d.SampleRate <= 0 {
		return 0
	}
	pos := int(ms*int64(d.SampleRate)/1000) * 2
	if pos > len(d.Samples) {
		pos = len(d.Samples)
	}
	return pos
}

// SamplePosToMs maps an element offset back to milliseconds, clamped to
// the stream duration.
func (d *DecodedAudio) SamplePosToMs(pos int) int64 {
	if pos < 0 || d.SampleRate <= 0 {
		return 0
	}
	ms := int64(pos/2) * 1000 / int64(d.SampleRate)
	if ms > d.DurationMs {
		ms = d.DurationMs
	}
	return ms
}

// LoadAudio opens the container at path and decodes its best audio
// stream completely into memory. Bad packets and failed sample
// conversions are logged and skipped; only the absence of a usable
// stream or an unreadable container fails the load.
func LoadAudio(path string) (*DecodedAudio, error) {
	var formatCtx avformat.FormatContext
	if err := avformat.OpenInput(&formatCtx, path, nil, nil); err != nil {
		return nil, fmt.Errorf("media: open %s: %w", path, err)
	}
	defer avformat.CloseInput(&formatCtx)

	if err := avformat.FindStreamInfo(formatCtx, nil); err != nil {
		return nil, fmt.Errorf("media: stream info: %w", err)
	}

	streamIdx := int(avformat.FindBestStream(formatCtx, avutil.MediaTypeAudio, -1, -1, nil, 0))
	if streamIdx < 0 {
		return nil, ErrNoAudioStream
	}

	stream := avformat.GetStream(formatCtx, streamIdx)
	tbNum, tbDen := avformat.GetStreamTimeBase(stream)
	tb := avutil.NewRational(tbNum, tbDen)

	codecPar := avformat.GetStreamCodecPar(stream)
	codec := avcodec.FindDecoder(avformat.GetCodecParCodecID(codecPar))
	if codec == nil {
		return nil, errors.New("media: audio decoder not found")
	}

	codecCtx := avcodec.AllocContext3(codec)
	if codecCtx == nil {
		return nil, errors.New("media: failed to allocate audio codec context")
	}
	defer avcodec.FreeContext(&codecCtx)

	if err := avcodec.ParametersToContext(codecCtx, codecPar); err != nil {
		return nil, fmt.Errorf("media: audio codec parameters: %w", err)
	}
	if err := avcodec.Open2(codecCtx, codec, nil); err != nil {
		return nil, fmt.Errorf("media: open audio codec: %w", err)
	}

	rate := int(avcodec.GetCtxSampleRate(codecCtx))
	channels := int(avcodec.GetCtxChannels(codecCtx))
	if rate <= 0 || channels <= 0 {
		return nil, errors.New("media: audio stream has no sample rate")
	}
	// Rate is normalized per channel; position<->time math relies on it.
	sampleRate := rate / channels
	if sampleRate <= 0 {
		sampleRate = rate
	}

	log.Printf("Decoding audio: sample rate=%dHz, channels=%d", rate, channels)
	start := time.Now()

	packet := avcodec.PacketAlloc()
	if packet == nil {
		return nil, errors.New("media: failed to allocate packet")
	}
	defer avcodec.PacketFree(&packet)

	frame := avutil.FrameAlloc()
	if frame == nil {
		return nil, errors.New("media: failed to allocate frame")
	}
	defer avutil.FrameFree(&frame)

	var (
		samples    []float32
		durationMs int64
		conv       *sampleConverter
	)
	defer func() {
		if conv != nil {
			conv.close()
		}
	}()

	for {
		if err := avformat.ReadFrame(formatCtx, packet); err != nil {
			if avutil.IsEOF(err) {
				break
			}
			log.Printf("Audio demux error, stopping early: %v", err)
			break
		}

		if int(avcodec.GetPacketStreamIndex(packet)) != streamIdx {
			avcodec.PacketUnref(packet)
			continue
		}

		if pts := avcodec.GetPacketPTS(packet); pts != avutil.NoPTSValue {
			if ms := timebase.ToMillis(pts, tb); ms > durationMs {
				durationMs = ms
			}
		}

		if err := avcodec.SendPacket(codecCtx, packet); err != nil {
			log.Printf("Error sending audio packet: %v", err)
			avcodec.PacketUnref(packet)
			continue
		}
		avcodec.PacketUnref(packet)

		for {
			if err := avcodec.ReceiveFrame(codecCtx, frame); err != nil {
				break
			}
			samples = appendFrameSamples(samples, frame, channels, &conv)
		}
	}

	log.Printf("Finished decoding %d audio samples, duration: %dms, took %dms",
		len(samples), durationMs, time.Since(start).Milliseconds())

	return &DecodedAudio{
		Samples:    samples,
		SampleRate: sampleRate,
		DurationMs: durationMs,
	}, nil
}

// appendFrameSamples appends one decoded frame's samples to the stereo
// buffer. Frames already in planar float land directly; anything else is
// converted first. Mono input is duplicated into both channels.
func appendFrameSamples(dst []float32, frame avutil.Frame, channels int, conv **sampleConverter) []float32 {
	if avutil.GetFrameFormat(frame) == int32(avutil.SampleFormatFltP) {
		return appendPlane(dst, frame, channels)
	}

	if *conv == nil || !(*conv).matches(frame) {
		if *conv != nil {
			(*conv).close()
		}
		c, err := newSampleConverter(frame)
		if err != nil {
			log.Printf("Failed to convert audio format %d: %v", avutil.GetFrameFormat(frame), err)
			return dst
		}
		*conv = c
	}

	converted, err := (*conv).convert(frame)
	if err != nil {
		log.Printf("Failed to convert audio format %d: %v", avutil.GetFrameFormat(frame), err)
		return dst
	}
	defer avutil.FrameFree(&converted)

	return appendPlane(dst, converted, channels)
}

// appendPlane copies plane 0 of a planar-float frame into the buffer.
func appendPlane(dst []float32, frame avutil.Frame, channels int) []float32 {
	n := int(avutil.GetFrameNbSamples(frame))
	if n <= 0 {
		return dst
	}
	data := avutil.GetFrameDataPlane(frame, 0)
	if data == nil {
		return dst
	}
	return appendInterleaved(dst, unsafe.Slice((*float32)(data), n), channels)
}

// appendInterleaved appends plane samples as interleaved stereo. Mono
// input is duplicated into both channels; everything else is taken as
// already interleaved.
func appendInterleaved(dst, plane []float32, channels int) []float32 {
	if channels == 1 {
		for _, s := range plane {
			dst = append(dst, s, s)
		}
		return dst
	}
	return append(dst, plane...)
}

// ABOUTME: One-shot media inspection producing a stream-level report
// ABOUTME: Opens the container read-only; never touches the decode core
package probe

import (
	"fmt"
	"strings"

	"github.com/nonibytes/ffgo/avcodec"
	"github.com/nonibytes/ffgo/avformat"
	"github.com/nonibytes/ffgo/avutil"

	"github.com/avio-player/avio-go/internal/media"
	"github.com/avio-player/avio-go/internal/timebase"
)

// VideoStream describes one video stream of the container.
type VideoStream struct {
	Index     int
	Codec     string
	Width     int
	Height    int
	FrameRate float64
	PixelFmt  int32
	TimeBase  avutil.Rational
}

// AudioStream describes one audio stream of the container.
type AudioStream struct {
	Index      int
	Codec      string
	SampleRate int
	Channels   int
	TimeBase   avutil.Rational
}

// Report is the result of probing one file.
type Report struct {
	Path       string
	DurationMs int64
	BitRate    int64
	Video      []VideoStream
	Audio      []AudioStream
}

// Inspect opens the container at path, reads its stream headers, and
// closes it again.
func Inspect(path string) (*Report, error) {
	var ctx avformat.FormatContext
	if err := avformat.OpenInput(&ctx, path, nil, nil); err != nil {
		return nil, fmt.Errorf("probe: open %s: %w", path, err)
	}
	defer avformat.CloseInput(&ctx)

	if err := avformat.FindStreamInfo(ctx, nil); err != nil {
		return nil, fmt.Errorf("probe: stream info: %w", err)
	}

	r := &Report{
		Path:       path,
		DurationMs: timebase.ToMillis(avformat.GetDuration(ctx), timebase.Micros),
		BitRate:    avformat.GetBitRate(ctx),
	}

	for i := 0; i < avformat.GetNumStreams(ctx); i++ {
		stream := avformat.GetStream(ctx, i)
		par := avformat.GetStreamCodecPar(stream)
		tbNum, tbDen := avformat.GetStreamTimeBase(stream)
		tb := avutil.NewRational(tbNum, tbDen)

		switch avformat.GetCodecParType(par) {
		case avutil.MediaTypeVideo:
			frNum, frDen := media.StreamAvgFrameRate(stream)
			var fps float64
			if frDen != 0 {
				fps = float64(frNum) / float64(frDen)
			}
			r.Video = append(r.Video, VideoStream{
				Index:     i,
				Codec:     codecName(avformat.GetCodecParCodecID(par)),
				Width:     int(avformat.GetCodecParWidth(par)),
				Height:    int(avformat.GetCodecParHeight(par)),
				FrameRate: fps,
				PixelFmt:  avformat.GetCodecParFormat(par),
				TimeBase:  tb,
			})
		case avutil.MediaTypeAudio:
			rate, channels := audioParams(par)
			r.Audio = append(r.Audio, AudioStream{
				Index:      i,
				Codec:      codecName(avformat.GetCodecParCodecID(par)),
				SampleRate: rate,
				Channels:   channels,
				TimeBase:   tb,
			})
		}
	}
	return r, nil
}

// codecName resolves a codec ID to its decoder name, or "unknown" when
// no decoder is registered for it.
func codecName(id avcodec.CodecID) string {
	codec := avcodec.FindDecoder(id)
	if codec == nil {
		return "unknown"
	}
	return avcodec.GetCodecName(codec)
}

// audioParams reads the sample rate and channel count from codec
// parameters. The channel count lives on the codec context, so the
// parameters are copied into a throwaway context first.
func audioParams(par avcodec.Parameters) (rate, channels int) {
	rate = int(avformat.GetCodecParSampleRate(par))

	ctx := avcodec.AllocContext3(nil)
	if ctx == nil {
		return rate, 0
	}
	defer avcodec.FreeContext(&ctx)
	if err := avcodec.ParametersToContext(ctx, par); err != nil {
		return rate, 0
	}
	return rate, int(avcodec.GetCtxChannels(ctx))
}

// String renders the report in the shape of a stream listing.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Path)
	fmt.Fprintf(&b, "  duration: %s  bitrate: %d kb/s\n", formatMs(r.DurationMs), r.BitRate/1000)
	for _, v := range r.Video {
		fmt.Fprintf(&b, "  stream %d: video, %s, %dx%d, %.2f fps, tb %d/%d\n",
			v.Index, v.Codec, v.Width, v.Height, v.FrameRate, v.TimeBase.Num, v.TimeBase.Den)
	}
	for _, a := range r.Audio {
		fmt.Fprintf(&b, "  stream %d: audio, %s, %d Hz, %d ch, tb %d/%d\n",
			a.Index, a.Codec, a.SampleRate, a.Channels, a.TimeBase.Num, a.TimeBase.Den)
	}
	return b.String()
}

// formatMs renders milliseconds as h:mm:ss.mmm.
func formatMs(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	m := (ms % 3600000) / 60000
	s := (ms % 60000) / 1000
	frac := ms % 1000
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, frac)
}

// ABOUTME: Sample-format conversion for audio frames outside planar float
// ABOUTME: Thin swresample wrapper targeting FLTP at the source rate/layout
package media

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/nonibytes/ffgo/avutil"
	"github.com/nonibytes/ffgo/swresample"
)

// sampleConverter converts decoded audio frames to planar float without
// changing rate or channel count. One converter is cached per source
// format during a load; a frame with a different format rebuilds it.
type sampleConverter struct {
	ctx         swresample.SwrContext
	srcFormat   int32
	srcRate     int32
	srcChannels int32
}

func newSampleConverter(frame avutil.Frame) (*sampleConverter, error) {
	srcFormat := avutil.GetFrameFormat(frame)
	srcRate := avutil.GetFrameSampleRate(frame)
	srcChannels := avutil.GetFrameChannels(frame)
	if srcRate <= 0 || srcChannels <= 0 {
		return nil, fmt.Errorf("media: invalid audio frame: rate=%d channels=%d", srcRate, srcChannels)
	}

	if err := swresample.Init(); err != nil {
		return nil, fmt.Errorf("media: swresample unavailable: %w", err)
	}

	layout := layoutForChannels(srcChannels)
	dstFormat := int32(avutil.SampleFormatFltP)

	// AVChannelLayout(FFmpeg 5.1+) path first; legacy mask API as fallback.
	if ctx := swresample.Alloc(); ctx != nil {
		const avChannelLayoutSize = 24
		out := avutil.Malloc(avChannelLayoutSize)
		in := avutil.Malloc(avChannelLayoutSize)
		if out != nil && in != nil {
			setChannelLayoutMask(out, srcChannels, layout)
			setChannelLayoutMask(in, srcChannels, layout)
			err := swresample.AllocSetOpts2(&ctx, out, in, dstFormat, srcFormat, srcRate, srcRate)
			avutil.Free(out)
			avutil.Free(in)
			if err == nil {
				if err := swresample.InitContext(ctx); err != nil {
					swresample.Free(&ctx)
					return nil, fmt.Errorf("media: init converter: %w", err)
				}
				return &sampleConverter{ctx: ctx, srcFormat: srcFormat, srcRate: srcRate, srcChannels: srcChannels}, nil
			}
		} else {
			if out != nil {
				avutil.Free(out)
			}
			if in != nil {
				avutil.Free(in)
			}
		}
		swresample.Free(&ctx)
	}

	ctx := swresample.AllocSetOpts(nil,
		int64(layout), dstFormat, srcRate,
		int64(layout), srcFormat, srcRate)
	if ctx == nil {
		return nil, errors.New("media: failed to allocate sample converter")
	}
	if err := swresample.InitContext(ctx); err != nil {
		swresample.Free(&ctx)
		return nil, fmt.Errorf("media: init converter: %w", err)
	}
	return &sampleConverter{ctx: ctx, srcFormat: srcFormat, srcRate: srcRate, srcChannels: srcChannels}, nil
}

// matches reports whether the converter was built for this frame's
// format, rate, and channel count.
func (c *sampleConverter) matches(frame avutil.Frame) bool {
	return avutil.GetFrameFormat(frame) == c.srcFormat &&
		avutil.GetFrameSampleRate(frame) == c.srcRate &&
		avutil.GetFrameChannels(frame) == c.srcChannels
}

// convert returns a planar-float copy of the frame. The caller frees the
// returned frame.
func (c *sampleConverter) convert(frame avutil.Frame) (avutil.Frame, error) {
	out := avutil.FrameAlloc()
	if out == nil {
		return nil, errors.New("media: failed to allocate conversion frame")
	}

	avutil.FrameSetSampleRate(out, c.srcRate)
	avutil.FrameSetChannels(out, c.srcChannels)
	avutil.FrameSetFormat(out, int32(avutil.SampleFormatFltP))

	inSamples := int(avutil.GetFrameNbSamples(frame))
	outSamples := swresample.GetOutSamples(c.ctx, inSamples)
	if outSamples <= 0 {
		outSamples = inSamples + 256
	}
	avutil.FrameSetNbSamples(out, int32(outSamples))

	if err := avutil.FrameGetBufferErr(out, 0); err != nil {
		avutil.FrameFree(&out)
		return nil, fmt.Errorf("media: conversion buffer: %w", err)
	}

	if err := swresample.ConvertFrame(c.ctx, out, frame); err != nil {
		avutil.FrameFree(&out)
		return nil, fmt.Errorf("media: convert frame: %w", err)
	}
	return out, nil
}

func (c *sampleConverter) close() {
	if c.ctx != nil {
		swresample.Free(&c.ctx)
	}
}

// layoutForChannels maps a channel count to the matching FFmpeg channel
// layout mask.
func layoutForChannels(channels int32) uint64 {
	switch channels {
	case 1:
		return 0x4 // AV_CH_LAYOUT_MONO
	case 2:
		return 0x3 // AV_CH_LAYOUT_STEREO
	case 3:
		return 0x7 // AV_CH_LAYOUT_SURROUND
	case 6:
		return 0x60F // AV_CH_LAYOUT_5POINT1
	case 8:
		return 0x63F // AV_CH_LAYOUT_7POINT1
	default:
		return 0x3
	}
}

// setChannelLayoutMask fills an AVChannelLayout (FFmpeg 5.1+ ABI):
// order int32, nb_channels int32, u.mask uint64, opaque void*.
func setChannelLayoutMask(layout unsafe.Pointer, channels int32, mask uint64) {
	const channelOrderNative = int32(1)
	*(*int32)(layout) = channelOrderNative
	*(*int32)(unsafe.Add(layout, 4)) = channels
	*(*uint64)(unsafe.Add(layout, 8)) = mask
	*(*unsafe.Pointer)(unsafe.Add(layout, 16)) = nil
}

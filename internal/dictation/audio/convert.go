// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     audio
// Description: Format conversion (resampling and channel downmix)
// Author:      The dikta Authors
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrFormatUnsupported is returned when no conversion path exists
// between a source and target format.
var ErrFormatUnsupported = errors.New("audio format unsupported")

// Converter converts frames between formats. It caches one resampler per
// (source, target) pair so the per-frame path stays allocation-light and
// never rebuilds conversion state. Safe for use by a single producer;
// the cache itself is guarded for concurrent lookups.
type Converter struct {
	mu         sync.Mutex
	resamplers map[formatPair]*linearResampler
}

type formatPair struct {
	src Format
	dst Format
}

// NewConverter creates an empty converter
func NewConverter() *Converter {
	return &Converter{
		resamplers: make(map[formatPair]*linearResampler),
	}
}

// Convert converts a frame to the target format. The input frame is not
// modified; when source and target match it is returned unchanged.
// Conversion is deterministic: the same input always yields the same output.
func (c *Converter) Convert(frame Frame, target Format) (Frame, error) {
	src := frame.Format
	if !src.Valid() || !target.Valid() {
		return Frame{}, fmt.Errorf("%w: %s -> %s", ErrFormatUnsupported, src, target)
	}
	if src.SampleRate == target.SampleRate && src.Channels == target.Channels {
		out := frame
		out.Format.Encoding = target.Encoding
		return out, nil
	}
	// Only downmix to mono is supported; upmixing has no use in the pipeline.
	if target.Channels != src.Channels && target.Channels != 1 {
		return Frame{}, fmt.Errorf("%w: cannot convert %d to %d channels", ErrFormatUnsupported, src.Channels, target.Channels)
	}

	samples := frame.Samples
	if src.Channels != target.Channels {
		samples = downmixMono(samples, src.Channels)
	}
	if src.SampleRate != target.SampleRate {
		rs := c.resampler(src, target)
		samples = rs.resample(samples)
	}

	return Frame{
		Samples:   samples,
		Format:    target,
		Timestamp: frame.Timestamp,
	}, nil
}

func (c *Converter) resampler(src, dst Format) *linearResampler {
	key := formatPair{src: src, dst: dst}

	c.mu.Lock()
	defer c.mu.Unlock()

	rs, ok := c.resamplers[key]
	if !ok {
		rs = &linearResampler{
			ratio: float64(src.SampleRate) / float64(dst.SampleRate),
		}
		c.resamplers[key] = rs
	}
	return rs
}

// linearResampler resamples mono audio by linear interpolation between
// neighboring source samples.
type linearResampler struct {
	ratio float64
}

func (r *linearResampler) resample(in []float32) []float32 {
	if len(in) == 0 {
		return nil
	}

	// Even a tiny frame yields at least one output sample
	outLen := int(float64(len(in)) / r.ratio)
	if outLen < 1 {
		outLen = 1
	}
	out := make([]float32, outLen)

	for i := 0; i < outLen; i++ {
		srcPos := float64(i) * r.ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := sampleAt(in, srcIdx)
		s1 := sampleAt(in, srcIdx+1)
		out[i] = s0 + float32(frac)*(s1-s0)
	}

	return out
}

func sampleAt(in []float32, idx int) float32 {
	if idx >= len(in) {
		idx = len(in) - 1
	}
	if idx < 0 {
		return 0
	}
	return in[idx]
}

// downmixMono averages interleaved channels into one
func downmixMono(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += in[i*channels+ch]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// Float32ToInt16 converts float32 samples to 16-bit PCM with clamping
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		out[i] = int16(s * 32767)
	}
	return out
}

// Int16ToFloat32 converts 16-bit PCM samples to float32 in [-1, 1]
func Int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// SamplesDuration returns the play time of a mono sample count
func SamplesDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(sampleRate)
}

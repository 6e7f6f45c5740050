// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     audio
// Description: Tests for WAV encoding and decoding
// Author:      The dikta Authors
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodeWAV_Header(t *testing.T) {
	samples := make([]float32, 1600) // 100ms at 16kHz
	data := EncodeWAV(samples, 16000)

	if len(data) != 44+len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(data), 44+len(samples)*2)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Errorf("bad RIFF/WAVE magic")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if ch := binary.LittleEndian.Uint16(data[22:24]); ch != 1 {
		t.Errorf("channels = %d, want 1", ch)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Errorf("bits per sample = %d, want 16", bits)
	}
}

func TestDecodeWAV_Roundtrip(t *testing.T) {
	in := make([]float32, 800)
	for i := range in {
		in[i] = float32(math.Sin(2*math.Pi*float64(i)/80)) * 0.8
	}

	out, rate, err := DecodeWAV(EncodeWAV(in, 16000))
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if rate != 16000 {
		t.Errorf("rate = %d, want 16000", rate)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if math.Abs(float64(out[i]-in[i])) > 0.001 {
			t.Fatalf("sample %d = %v, want ~%v", i, out[i], in[i])
		}
	}
}

func TestDecodeWAV_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("this is definitely not a wav file, not even close")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeWAV(tt.data); err == nil {
				t.Error("DecodeWAV() expected error, got nil")
			}
		})
	}
}

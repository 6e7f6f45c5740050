// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     audio
// Description: WAV encoding and decoding (PCM16 mono)
// Author:      The dikta Authors
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// EncodeWAV converts float32 mono samples to a PCM16 WAV file in memory
func EncodeWAV(samples []float32, sampleRate int) []byte {
	var buf bytes.Buffer
	WriteWAV(&buf, samples, sampleRate)
	return buf.Bytes()
}

// WriteWAV writes float32 mono samples as a PCM16 WAV file
func WriteWAV(w io.Writer, samples []float32, sampleRate int) error {
	int16Samples := Float32ToInt16(samples)

	numChannels := uint16(1)
	bitsPerSample := uint16(16)
	byteRate := uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := uint32(len(int16Samples) * 2)

	// RIFF header
	if _, err := w.Write([]byte("RIFF")); err != nil {
		return err
	}
	binary.Write(w, binary.LittleEndian, uint32(36+dataSize))
	w.Write([]byte("WAVE"))

	// fmt chunk
	w.Write([]byte("fmt "))
	binary.Write(w, binary.LittleEndian, uint32(16)) // chunk size
	binary.Write(w, binary.LittleEndian, uint16(1))  // audio format (PCM)
	binary.Write(w, binary.LittleEndian, numChannels)
	binary.Write(w, binary.LittleEndian, uint32(sampleRate))
	binary.Write(w, binary.LittleEndian, byteRate)
	binary.Write(w, binary.LittleEndian, blockAlign)
	binary.Write(w, binary.LittleEndian, bitsPerSample)

	// data chunk
	w.Write([]byte("data"))
	binary.Write(w, binary.LittleEndian, dataSize)

	for _, s := range int16Samples {
		if err := binary.Write(w, binary.LittleEndian, s); err != nil {
			return err
		}
	}

	return nil
}

// DecodeWAV parses a PCM16 WAV file and returns float32 samples and the
// sample rate. Multi-channel files are downmixed to mono.
func DecodeWAV(data []byte) ([]float32, int, error) {
	if len(data) < 44 {
		return nil, 0, fmt.Errorf("wav too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		sampleRate    int
		channels      int
		bitsPerSample int
		pcm           []byte
	)

	// Walk chunks; fmt and data may be preceded by LIST or other chunks
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short")
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, 0, fmt.Errorf("unsupported wav format %d (PCM only)", audioFormat)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word-aligned
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if sampleRate == 0 || channels == 0 {
		return nil, 0, fmt.Errorf("missing fmt chunk")
	}
	if bitsPerSample != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d (16-bit only)", bitsPerSample)
	}
	if pcm == nil {
		return nil, 0, fmt.Errorf("missing data chunk")
	}

	int16Samples := make([]int16, len(pcm)/2)
	for i := range int16Samples {
		int16Samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	samples := Int16ToFloat32(int16Samples)

	if channels > 1 {
		samples = downmixMono(samples, channels)
	}

	return samples, sampleRate, nil
}

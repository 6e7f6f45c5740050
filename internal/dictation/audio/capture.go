// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     audio
// Description: Microphone capture using PortAudio
// Author:      The dikta Authors
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	// DefaultSampleRate is 16kHz, the rate expected by most STT backends
	DefaultSampleRate = 16000

	// DefaultFramesPerBuffer is the device read size in samples
	DefaultFramesPerBuffer = 512

	// DefaultChannels is mono audio
	DefaultChannels = 1
)

// Source delivers captured audio frames. Capture implements it against
// a real device; tests substitute scripted sources.
type Source interface {
	// Start begins delivering frames until ctx is cancelled or Stop is called
	Start(ctx context.Context) error

	// Stop stops capture synchronously; no frame is delivered after it returns
	Stop() error

	// Output is the frame channel; closed when capture ends
	Output() <-chan Frame

	// Format is the native format of delivered frames
	Format() Format
}

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	SampleRate int
	BufferSize int
	Channels   int
	DeviceName string // Name of the input device (empty = default)
}

// DefaultCaptureConfig returns default capture configuration
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate: DefaultSampleRate,
		BufferSize: DefaultFramesPerBuffer,
		Channels:   DefaultChannels,
	}
}

// Capture reads microphone audio from PortAudio and emits frames
type Capture struct {
	mu          sync.RWMutex
	stream      *portaudio.Stream
	cfg         CaptureConfig
	running     bool
	initialized bool
	outputChan  chan Frame
	stopped     chan struct{}
}

// NewCapture initializes PortAudio and creates a capture instance
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultFramesPerBuffer
	}
	if cfg.Channels <= 0 {
		cfg.Channels = DefaultChannels
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	return &Capture{
		cfg:         cfg,
		outputChan:  make(chan Frame, 100),
		initialized: true,
	}, nil
}

// Format returns the capture format
func (c *Capture) Format() Format {
	return Format{
		SampleRate: c.cfg.SampleRate,
		Channels:   c.cfg.Channels,
		Encoding:   EncodingFloat32,
	}
}

// Start begins audio capture
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("capture already running")
	}

	buffer := make([]float32, c.cfg.BufferSize*c.cfg.Channels)

	stream, err := c.openStream(buffer)
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	c.stream = stream
	c.running = true
	c.stopped = make(chan struct{})

	go c.captureLoop(ctx, buffer)

	return nil
}

func (c *Capture) openStream(buffer []float32) (*portaudio.Stream, error) {
	if c.cfg.DeviceName != "" && c.cfg.DeviceName != "default" {
		device, err := findDeviceByName(c.cfg.DeviceName)
		if err == nil {
			params := portaudio.StreamParameters{
				Input: portaudio.StreamDeviceParameters{
					Device:   device,
					Channels: c.cfg.Channels,
					Latency:  device.DefaultLowInputLatency,
				},
				SampleRate:      float64(c.cfg.SampleRate),
				FramesPerBuffer: c.cfg.BufferSize,
			}
			return portaudio.OpenStream(params, buffer)
		}
		// Fall back to default device when the named one is missing
	}

	return portaudio.OpenDefaultStream(
		c.cfg.Channels,
		0, // no output channels
		float64(c.cfg.SampleRate),
		c.cfg.BufferSize,
		buffer,
	)
}

// findDeviceByName finds a PortAudio input device by name
func findDeviceByName(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}

	return nil, fmt.Errorf("device not found: %s", name)
}

// captureLoop continuously reads audio from the stream
func (c *Capture) captureLoop(ctx context.Context, buffer []float32) {
	defer close(c.stopped)

	format := c.Format()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			c.mu.RLock()
			if !c.running || c.stream == nil {
				c.mu.RUnlock()
				return
			}
			stream := c.stream
			c.mu.RUnlock()

			if err := stream.Read(); err != nil {
				c.mu.RLock()
				stillRunning := c.running
				c.mu.RUnlock()
				if !stillRunning {
					return
				}
				continue
			}

			samples := make([]float32, len(buffer))
			copy(samples, buffer)

			frame := Frame{
				Samples:   samples,
				Format:    format,
				Timestamp: time.Now(),
			}

			select {
			case c.outputChan <- frame:
			default:
				// Channel full, drop the frame rather than block the device
			}
		}
	}
}

// Stop stops audio capture. When it returns, the capture loop has
// exited and no further frames are delivered.
func (c *Capture) Stop() error {
	c.mu.Lock()

	if !c.running {
		c.mu.Unlock()
		return nil
	}

	c.running = false
	stopped := c.stopped

	var err error
	if c.stream != nil {
		c.stream.Stop()
		if cerr := c.stream.Close(); cerr != nil {
			err = fmt.Errorf("failed to close audio stream: %w", cerr)
		}
		c.stream = nil
	}
	c.mu.Unlock()

	if stopped != nil {
		<-stopped
	}

	return err
}

// Output returns the channel that receives audio frames
func (c *Capture) Output() <-chan Frame {
	return c.outputChan
}

// IsRunning returns whether capture is currently running
func (c *Capture) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// Close stops capture and releases PortAudio
func (c *Capture) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		if err := portaudio.Terminate(); err != nil {
			return fmt.Errorf("failed to terminate PortAudio: %w", err)
		}
		c.initialized = false
	}

	close(c.outputChan)
	return nil
}

// DeviceInfo holds information about an audio input device
type DeviceInfo struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefault         bool
}

// ListInputDevices returns a list of available input devices
func ListInputDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	defaultInput, _ := portaudio.DefaultInputDevice()
	var defaultInputName string
	if defaultInput != nil {
		defaultInputName = defaultInput.Name
	}

	var inputDevices []DeviceInfo
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			inputDevices = append(inputDevices, DeviceInfo{
				Name:              dev.Name,
				MaxInputChannels:  dev.MaxInputChannels,
				DefaultSampleRate: dev.DefaultSampleRate,
				IsDefault:         dev.Name == defaultInputName,
			})
		}
	}

	return inputDevices, nil
}

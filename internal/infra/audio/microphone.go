//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"voice-cart/internal/infra/wav"
)

const framesPerBuffer = 1024

type MicrophoneSource struct {
	stream     *portaudio.Stream
	sampleRate int
	threshold  int16
	logger     *slog.Logger

	mu        sync.Mutex
	frame     []int16
	recording atomic.Bool
}

func NewMicrophoneSource(sampleRate int, threshold int16, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		sampleRate: sampleRate,
		threshold:  threshold,
		logger:     logger,
		frame:      make([]int16, framesPerBuffer),
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(m.frame), m.frame)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.stream = stream
	m.logger.Info("microphone started", "sample_rate", m.sampleRate)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
		m.stream = nil
	}
	portaudio.Terminate()
	return nil
}

// NextCommand blocks until an utterance has been captured and returns it as
// 16-bit mono WAV.
func (m *MicrophoneSource) NextCommand(ctx context.Context) ([]byte, error) {
	if !m.recording.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("already recording")
	}
	defer m.recording.Store(false)

	m.logger.Info("listening")

	seg := NewSegmenter(m.sampleRate, m.threshold)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := m.stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}

		if seg.Push(m.frame) {
			break
		}
	}

	samples := seg.Samples()
	m.logger.Info("utterance captured", "samples", len(samples))
	return wav.EncodeInt16(samples, m.sampleRate), nil
}

package application

import (
	"context"

	"voice-cart/internal/domain"
)

// SpeechToText transcribes a clip; container tells the backend how the
// bytes are encoded.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, container domain.Container) (string, error)
}

// Transcoder normalises a recorded clip before transcription.
type Transcoder interface {
	Transcode(audio []byte) ([]byte, error)
}

package wav

import "fmt"

const (
	TargetSampleRate = 16000
	DefaultThreshold = 0.025
)

type Transcoder struct {
	sampleRate int
	threshold  float32
	trim       bool
}

func NewTranscoder(sampleRate int, threshold float64, trim bool) *Transcoder {
	if sampleRate <= 0 {
		sampleRate = TargetSampleRate
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Transcoder{
		sampleRate: sampleRate,
		threshold:  float32(threshold),
		trim:       trim,
	}
}

// Transcode trims near-silence, downmixes and resamples a WAV clip.
func (t *Transcoder) Transcode(audio []byte) ([]byte, error) {
	clip, err := Decode(audio)
	if err != nil {
		return nil, fmt.Errorf("decoding wav: %w", err)
	}

	if t.trim {
		if err := clip.TrimSilence(t.threshold); err != nil {
			return nil, err
		}
	}

	clip.ToMono()
	clip.Resample(t.sampleRate)

	return Encode(clip), nil
}

package audio

// Segmenter accumulates microphone frames into one utterance. An utterance
// ends after a run of quiet samples once speech has been heard, or when the
// length cap is reached.
type Segmenter struct {
	threshold  int16
	maxSilence int
	maxSamples int

	samples []int16
	silence int
	heard   bool
}

func NewSegmenter(sampleRate int, threshold int16) *Segmenter {
	return &Segmenter{
		threshold:  threshold,
		maxSilence: sampleRate,
		maxSamples: sampleRate * 10,
		samples:    make([]int16, 0, sampleRate*5),
	}
}

// Push appends a frame and reports whether the utterance is complete.
func (s *Segmenter) Push(frame []int16) bool {
	loud := false
	for _, v := range frame {
		if v > s.threshold || v < -s.threshold {
			loud = true
			break
		}
	}

	if loud {
		s.heard = true
		s.silence = 0
	} else {
		s.silence += len(frame)
	}

	// Leading silence is not kept.
	if !s.heard {
		return false
	}

	s.samples = append(s.samples, frame...)

	if s.silence >= s.maxSilence {
		return true
	}
	return len(s.samples) >= s.maxSamples
}

func (s *Segmenter) Samples() []int16 {
	return s.samples
}

func (s *Segmenter) Reset() {
	s.samples = s.samples[:0]
	s.silence = 0
	s.heard = false
}

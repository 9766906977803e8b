// Package wav converts recorded clips into the 16 kHz mono 16-bit PCM WAV
// both transcription services expect.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"voice-cart/internal/domain"
)

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE

	headerSize = 44
)

// Clip is decoded audio, one float slice per channel, samples in [-1, 1].
type Clip struct {
	SampleRate int
	Channels   [][]float32
}

func (c *Clip) Len() int {
	if len(c.Channels) == 0 {
		return 0
	}
	return len(c.Channels[0])
}

type format struct {
	audioFormat   uint16
	channels      uint16
	sampleRate    uint32
	bitsPerSample uint16
}

// Decode parses a RIFF/WAVE container with integer or float PCM samples.
func Decode(data []byte) (*Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE container", domain.ErrUnsupportedAudio)
	}

	var (
		fmtChunk *format
		pcm      []byte
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		start := pos + 8
		end := start + size
		if end > len(data) {
			// Streaming recorders leave the data size unset.
			end = len(data)
		}
		body := data[start:end]

		switch id {
		case "fmt ":
			if len(body) < 16 {
				return nil, fmt.Errorf("fmt chunk too short: %d bytes", len(body))
			}
			f := &format{
				audioFormat:   binary.LittleEndian.Uint16(body[0:2]),
				channels:      binary.LittleEndian.Uint16(body[2:4]),
				sampleRate:    binary.LittleEndian.Uint32(body[4:8]),
				bitsPerSample: binary.LittleEndian.Uint16(body[14:16]),
			}
			if f.audioFormat == formatExtensible && len(body) >= 26 {
				f.audioFormat = binary.LittleEndian.Uint16(body[24:26])
			}
			fmtChunk = f
		case "data":
			pcm = body
		}

		pos = end + size%2
		if end == len(data) {
			break
		}
	}

	if fmtChunk == nil {
		return nil, fmt.Errorf("missing fmt chunk")
	}
	if pcm == nil {
		return nil, fmt.Errorf("missing data chunk")
	}
	if fmtChunk.channels == 0 || fmtChunk.sampleRate == 0 {
		return nil, fmt.Errorf("invalid format: %d channels at %d Hz", fmtChunk.channels, fmtChunk.sampleRate)
	}

	read, err := sampleReader(fmtChunk.audioFormat, fmtChunk.bitsPerSample)
	if err != nil {
		return nil, err
	}

	width := int(fmtChunk.bitsPerSample) / 8
	channels := int(fmtChunk.channels)
	frames := len(pcm) / (width * channels)

	clip := &Clip{
		SampleRate: int(fmtChunk.sampleRate),
		Channels:   make([][]float32, channels),
	}
	for ch := range clip.Channels {
		clip.Channels[ch] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * width
			clip.Channels[ch][i] = read(pcm[off : off+width])
		}
	}

	return clip, nil
}

func sampleReader(audioFormat, bits uint16) (func([]byte) float32, error) {
	switch {
	case audioFormat == formatPCM && bits == 8:
		return func(b []byte) float32 { return (float32(b[0]) - 128) / 128 }, nil
	case audioFormat == formatPCM && bits == 16:
		return func(b []byte) float32 {
			return float32(int16(binary.LittleEndian.Uint16(b))) / 32768
		}, nil
	case audioFormat == formatPCM && bits == 24:
		return func(b []byte) float32 {
			v := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
			return float32(v) / 8388608
		}, nil
	case audioFormat == formatPCM && bits == 32:
		return func(b []byte) float32 {
			return float32(float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648)
		}, nil
	case audioFormat == formatFloat && bits == 32:
		return func(b []byte) float32 {
			return math.Float32frombits(binary.LittleEndian.Uint32(b))
		}, nil
	}
	return nil, fmt.Errorf("%w: format %d with %d bits per sample", domain.ErrUnsupportedAudio, audioFormat, bits)
}

// TrimSilence drops leading and trailing frames whose first-channel
// amplitude stays below threshold.
func (c *Clip) TrimSilence(threshold float32) error {
	n := c.Len()
	if n == 0 {
		return domain.ErrSilentAudio
	}

	first := c.Channels[0]
	start := 0
	for start < n && abs(first[start]) < threshold {
		start++
	}
	if start == n {
		return domain.ErrSilentAudio
	}

	end := n - 1
	for end > start && abs(first[end]) < threshold {
		end--
	}

	for ch := range c.Channels {
		c.Channels[ch] = c.Channels[ch][start : end+1]
	}
	return nil
}

// ToMono averages all channels into one.
func (c *Clip) ToMono() {
	if len(c.Channels) <= 1 {
		return
	}

	n := c.Len()
	mono := make([]float32, n)
	scale := 1 / float32(len(c.Channels))
	for i := 0; i < n; i++ {
		var sum float32
		for _, ch := range c.Channels {
			sum += ch[i]
		}
		mono[i] = sum * scale
	}
	c.Channels = [][]float32{mono}
}

// Resample converts every channel to rate using linear interpolation.
func (c *Clip) Resample(rate int) {
	if rate <= 0 || rate == c.SampleRate {
		return
	}
	if c.Len() == 0 {
		c.SampleRate = rate
		return
	}

	n := c.Len()
	ratio := float64(c.SampleRate) / float64(rate)
	outLen := int(math.Round(float64(n) / ratio))
	if outLen < 1 {
		outLen = 1
	}

	for ch, in := range c.Channels {
		out := make([]float32, outLen)
		for i := range out {
			pos := float64(i) * ratio
			j := int(pos)
			if j >= n-1 {
				out[i] = in[n-1]
				continue
			}
			frac := float32(pos - float64(j))
			out[i] = in[j] + (in[j+1]-in[j])*frac
		}
		c.Channels[ch] = out
	}
	c.SampleRate = rate
}

// Encode writes the clip as 16-bit integer PCM. Multi-channel clips are
// interleaved.
func Encode(c *Clip) []byte {
	channels := len(c.Channels)
	if channels == 0 {
		channels = 1
	}
	frames := c.Len()
	dataSize := frames * channels * 2

	var buf bytes.Buffer
	buf.Grow(headerSize + dataSize)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(formatPCM))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(c.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(c.SampleRate*channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))

	sample := make([]byte, 2)
	for i := 0; i < frames; i++ {
		for _, ch := range c.Channels {
			binary.LittleEndian.PutUint16(sample, uint16(toInt16(ch[i])))
			buf.Write(sample)
		}
	}

	return buf.Bytes()
}

// EncodeInt16 wraps raw 16-bit samples captured from a microphone.
func EncodeInt16(samples []int16, sampleRate int) []byte {
	mono := make([]float32, len(samples))
	for i, s := range samples {
		mono[i] = float32(s) / 32768
	}
	return Encode(&Clip{SampleRate: sampleRate, Channels: [][]float32{mono}})
}

func toInt16(v float32) int16 {
	s := v * 32768
	if s >= math.MaxInt16 {
		return math.MaxInt16
	}
	if s <= math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

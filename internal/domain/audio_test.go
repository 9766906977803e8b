package domain_test

import (
	"testing"

	"voice-cart/internal/domain"
)

func TestDetectContainer(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want domain.Container
	}{
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), domain.ContainerWAV},
		{"riff but not wave", []byte("RIFF\x24\x00\x00\x00AVI LIST"), domain.ContainerUnknown},
		{"ogg", []byte("OggS\x00\x02"), domain.ContainerOgg},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F}, domain.ContainerWebM},
		{"m4a", []byte("\x00\x00\x00\x20ftypM4A "), domain.ContainerM4A},
		{"mp3 with tag", []byte("ID3\x04\x00"), domain.ContainerMP3},
		{"mp3 frame", []byte{0xFF, 0xFB, 0x90, 0x64}, domain.ContainerMP3},
		{"text", []byte("hello"), domain.ContainerUnknown},
		{"empty", nil, domain.ContainerUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.DetectContainer(tt.data); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContainer_Labels(t *testing.T) {
	if got := domain.ContainerUnknown.Ext(); got != ".wav" {
		t.Errorf("unknown ext: got %q", got)
	}
	if got := domain.ContainerOgg.Ext(); got != ".ogg" {
		t.Errorf("ogg ext: got %q", got)
	}
	if got := domain.ContainerM4A.MIMEType(); got != "audio/mp4" {
		t.Errorf("m4a mime: got %q", got)
	}
}

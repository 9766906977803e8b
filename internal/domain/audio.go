package domain

import "bytes"

// Container is the file format of a recorded clip.
type Container string

const (
	ContainerUnknown Container = ""
	ContainerWAV     Container = "wav"
	ContainerOgg     Container = "ogg"
	ContainerWebM    Container = "webm"
	ContainerMP3     Container = "mp3"
	ContainerM4A     Container = "m4a"
)

// DetectContainer sniffs the clip's magic bytes.
func DetectContainer(data []byte) Container {
	switch {
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return ContainerWAV
	case bytes.HasPrefix(data, []byte("OggS")):
		return ContainerOgg
	case bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return ContainerWebM
	case len(data) >= 8 && bytes.Equal(data[4:8], []byte("ftyp")):
		return ContainerM4A
	case bytes.HasPrefix(data, []byte("ID3")):
		return ContainerMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return ContainerMP3
	}
	return ContainerUnknown
}

// Ext is the filename extension upstream services key the decoder on.
// Unknown clips are labelled as WAV.
func (c Container) Ext() string {
	if c == ContainerUnknown {
		return ".wav"
	}
	return "." + string(c)
}

func (c Container) MIMEType() string {
	switch c {
	case ContainerOgg:
		return "audio/ogg"
	case ContainerWebM:
		return "audio/webm"
	case ContainerMP3:
		return "audio/mpeg"
	case ContainerM4A:
		return "audio/mp4"
	default:
		return "audio/wav"
	}
}

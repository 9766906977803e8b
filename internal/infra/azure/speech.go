// Package azure talks to Azure AI Speech and Azure OpenAI.
package azure

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voice-cart/internal/domain"
	"voice-cart/internal/infra"
)

// SpeechClient uses the short-audio REST endpoint, which accepts up to 60
// seconds of PCM WAV or Ogg Opus.
type SpeechClient struct {
	key        string
	endpoint   string
	language   string
	httpClient *http.Client
}

func NewSpeechClient(key, region, language string) *SpeechClient {
	return NewSpeechClientWithURL(key, fmt.Sprintf("https://%s.stt.speech.microsoft.com", region), language)
}

func NewSpeechClientWithURL(key, endpoint, language string) *SpeechClient {
	if language == "" {
		language = "en-US"
	}
	return &SpeechClient{
		key:        key,
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		language:   language,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

func (c *SpeechClient) Transcribe(ctx context.Context, audio []byte, container domain.Container) (string, error) {
	contentType, err := speechContentType(audio, container)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("language", c.language)
	q.Set("format", "simple")
	u := c.endpoint + "/speech/recognition/conversation/cognitiveservices/v1?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := infra.CheckResponse("azure speech", resp); err != nil {
		return "", err
	}

	var result recognitionResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	switch result.RecognitionStatus {
	case "Success":
		return result.DisplayText, nil
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return "", fmt.Errorf("%w: %s", domain.ErrSilentAudio, result.RecognitionStatus)
	default:
		return "", fmt.Errorf("azure speech recognition failed: %s", result.RecognitionStatus)
	}
}

func speechContentType(audio []byte, container domain.Container) (string, error) {
	switch container {
	case domain.ContainerWAV, domain.ContainerUnknown:
		rate := uint32(16000)
		if len(audio) >= 28 && domain.DetectContainer(audio) == domain.ContainerWAV {
			rate = binary.LittleEndian.Uint32(audio[24:28])
		}
		return fmt.Sprintf("audio/wav; codecs=audio/pcm; samplerate=%d", rate), nil
	case domain.ContainerOgg:
		return "audio/ogg; codecs=opus", nil
	}
	return "", fmt.Errorf("%w: azure speech cannot decode %s", domain.ErrUnsupportedAudio, container)
}

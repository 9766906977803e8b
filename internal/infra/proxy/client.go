// Package proxy is the client for a first-party AI proxy exposing
// api/AzureAI/GetText and api/AzureAI/ProcessTranscript.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"voice-cart/internal/domain"
	"voice-cart/internal/infra"
)

const (
	GetTextPath           = "/api/AzureAI/GetText"
	ProcessTranscriptPath = "/api/AzureAI/ProcessTranscript"

	// FormFileField is the multipart field carrying the clip.
	FormFileField = "formFile"

	StatusSuccess = "success"
	StatusFailure = "failure"
)

type GetTextResponse struct {
	Text string `json:"text"`
}

type ProcessTranscriptRequest struct {
	PromptMessage string `json:"promptMessage"`
}

type Tool struct {
	Process string `json:"process"`
	Args    string `json:"args"`
}

type ProcessTranscriptResponse struct {
	Status string `json:"status"`
	Tools  []Tool `json:"tools"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, container domain.Container) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := infra.CreateAudioPart(writer, FormFileField, container)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err = part.Write(audio); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	if err = writer.Close(); err != nil {
		return "", fmt.Errorf("closing writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+GetTextPath, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := infra.CheckResponse("proxy", resp); err != nil {
		return "", err
	}

	var result GetTextResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return result.Text, nil
}

// Complete forwards the transcript; the proxy owns the function schema, so
// functions is ignored.
func (c *Client) Complete(ctx context.Context, text string, _ []domain.FunctionSpec) ([]domain.FunctionCall, error) {
	bodyBytes, err := json.Marshal(ProcessTranscriptRequest{PromptMessage: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ProcessTranscriptPath, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := infra.CheckResponse("proxy", resp); err != nil {
		return nil, err
	}

	var result ProcessTranscriptResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if result.Status != StatusSuccess {
		return nil, fmt.Errorf("%w: proxy status %q", domain.ErrNoFunctionCall, result.Status)
	}

	calls := make([]domain.FunctionCall, 0, len(result.Tools))
	for _, t := range result.Tools {
		if t.Process == "" {
			continue
		}
		calls = append(calls, domain.FunctionCall{Name: domain.FunctionName(t.Process), Arguments: t.Args})
	}

	return calls, nil
}

// ToolsFromCalls renders function calls in the proxy response shape.
func ToolsFromCalls(calls []domain.FunctionCall) []Tool {
	tools := make([]Tool, len(calls))
	for i, c := range calls {
		tools[i] = Tool{Process: string(c.Name), Args: c.Arguments}
	}
	return tools
}

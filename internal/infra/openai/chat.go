package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"voice-cart/internal/domain"
	"voice-cart/internal/infra"
)

const DefaultChatModel = "gpt-3.5-turbo-0613"

// ChatClient picks cart functions through the chat completions endpoint
// with function calling.
type ChatClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewChatClient(apiKey, model string) *ChatClient {
	return NewChatClientWithURL(apiKey, model, DefaultBaseURL)
}

func NewChatClientWithURL(apiKey, model, baseURL string) *ChatClient {
	if model == "" {
		model = DefaultChatModel
	}
	return &ChatClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model        string                `json:"model"`
	Messages     []message             `json:"messages"`
	Functions    []domain.FunctionSpec `json:"functions"`
	FunctionCall string                `json:"function_call"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content      *string       `json:"content"`
			FunctionCall *functionCall `json:"function_call"`
		} `json:"message"`
	} `json:"choices"`
}

// Prompt wraps a transcript into the user message sent to the model.
func Prompt(text string) string {
	return "Call a required function from this prompt:: " + text
}

func (c *ChatClient) Complete(ctx context.Context, text string, functions []domain.FunctionSpec) ([]domain.FunctionCall, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "user", Content: Prompt(text)},
		},
		Functions:    functions,
		FunctionCall: "auto",
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := infra.CheckResponse("openai", resp); err != nil {
		return nil, err
	}

	var result chatResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("empty response from openai")
	}

	msg := result.Choices[0].Message
	if msg.FunctionCall == nil || msg.FunctionCall.Name == "" {
		content := ""
		if msg.Content != nil {
			content = *msg.Content
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrNoFunctionCall, content)
	}

	return []domain.FunctionCall{{
		Name:      domain.FunctionName(msg.FunctionCall.Name),
		Arguments: msg.FunctionCall.Arguments,
	}}, nil
}

package anthropic

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

type ClaudeClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewClaudeClient(apiKey, model string) *ClaudeClient {
	return NewClaudeClientWithURL(apiKey, model, "https://api.anthropic.com/v1")
}

func NewClaudeClientWithURL(apiKey, model, baseURL string) *ClaudeClient {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &ClaudeClient{
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

type tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type toolChoice struct {
	Type string `json:"type"`
}

type request struct {
	Model      string     `json:"model"`
	MaxTokens  int        `json:"max_tokens"`
	System     string     `json:"system"`
	Messages   []message  `json:"messages"`
	Tools      []tool     `json:"tools"`
	ToolChoice toolChoice `json:"tool_choice"`
}

type response struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
}

const systemPrompt = `You are a grocery shopping assistant. The shopper speaks to you and you keep their cart up to date.

IMPORTANT:
- Use the provided tools for every cart change
- Use the EXACT product name as it appears in the tool definitions
- If the request is unclear, answer with a short question instead of calling a tool`

func (c *ClaudeClient) Complete(ctx context.Context, text string, functions []domain.FunctionSpec) ([]domain.FunctionCall, error) {
	tools := make([]tool, len(functions))
	for i, f := range functions {
		tools[i] = tool{Name: string(f.Name), Description: f.Description, InputSchema: f.Parameters}
	}

	reqBody := request{
		Model:     c.model,
		MaxTokens: 512,
		System:    systemPrompt,
		Messages: []message{
			{Role: "user", Content: text},
		},
		Tools:      tools,
		ToolChoice: toolChoice{Type: "auto"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := infra.CheckResponse("claude", resp); err != nil {
		return nil, err
	}

	var result response
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	var (
		calls []domain.FunctionCall
		reply string
	)
	for _, block := range result.Content {
		switch block.Type {
		case "tool_use":
			args := string(block.Input)
			if args == "" || args == "null" {
				args = "{}"
			}
			calls = append(calls, domain.FunctionCall{Name: domain.FunctionName(block.Name), Arguments: args})
		case "text":
			reply += block.Text
		}
	}

	if len(calls) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoFunctionCall, reply)
	}

	return calls, nil
}

package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voice-cart/internal/domain"
	"voice-cart/internal/infra"
)

const DefaultAPIVersion = "2024-02-01"

const systemPrompt = "You manage a grocery cart. Translate the shopper's request into calls of the provided functions. " +
	"Only use product names from the function definitions."

// ChatClient calls an Azure OpenAI chat deployment with tool definitions.
type ChatClient struct {
	key        string
	endpoint   string
	deployment string
	apiVersion string
	httpClient *http.Client
}

func NewChatClient(key, endpoint, deployment, apiVersion string) *ChatClient {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &ChatClient{
		key:        key,
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		deployment: deployment,
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type tool struct {
	Type     string              `json:"type"`
	Function domain.FunctionSpec `json:"function"`
}

type chatRequest struct {
	Messages   []message `json:"messages"`
	Tools      []tool    `json:"tools"`
	ToolChoice string    `json:"tool_choice"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   *string `json:"content"`
			ToolCalls []struct {
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *ChatClient) Complete(ctx context.Context, text string, functions []domain.FunctionSpec) ([]domain.FunctionCall, error) {
	tools := make([]tool, len(functions))
	for i, f := range functions {
		tools[i] = tool{Type: "function", Function: f}
	}

	reqBody := chatRequest{
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Tools:      tools,
		ToolChoice: "auto",
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	u := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, url.PathEscape(c.deployment), url.QueryEscape(c.apiVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := infra.CheckResponse("azure openai", resp); err != nil {
		return nil, err
	}

	var result chatResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("empty response from azure openai")
	}

	msg := result.Choices[0].Message
	var calls []domain.FunctionCall
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name == "" {
			continue
		}
		calls = append(calls, domain.FunctionCall{
			Name:      domain.FunctionName(tc.Function.Name),
			Arguments: tc.Function.Arguments,
		})
	}

	if len(calls) == 0 {
		content := ""
		if msg.Content != nil {
			content = *msg.Content
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrNoFunctionCall, content)
	}

	return calls, nil
}

package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"voice-cart/internal/domain"
	"voice-cart/internal/infra"
)

type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewClient(apiKey, model string) *Client {
	return NewClientWithURL(apiKey, model, "https://generativelanguage.googleapis.com/v1beta")
}

func NewClientWithURL(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
	}
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type toolSet struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type request struct {
	Contents         []content        `json:"contents"`
	SystemInstruct   *content         `json:"systemInstruction,omitempty"`
	Tools            []toolSet        `json:"tools"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text         string `json:"text"`
				FunctionCall *struct {
					Name string          `json:"name"`
					Args json.RawMessage `json:"args"`
				} `json:"functionCall"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

const systemPrompt = "You are a grocery shopping assistant. Call the provided functions to change the shopper's cart. " +
	"Use product names exactly as listed in the function definitions."

func (c *Client) Complete(ctx context.Context, text string, functions []domain.FunctionSpec) ([]domain.FunctionCall, error) {
	decls := make([]functionDeclaration, len(functions))
	for i, f := range functions {
		decls[i] = functionDeclaration{Name: string(f.Name), Description: f.Description}
		// Gemini rejects object schemas without properties.
		if props, ok := f.Parameters["properties"].(map[string]any); ok && len(props) > 0 {
			decls[i].Parameters = f.Parameters
		}
	}

	reqBody := request{
		SystemInstruct: &content{
			Parts: []part{{Text: systemPrompt}},
		},
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: text}},
			},
		},
		Tools: []toolSet{{FunctionDeclarations: decls}},
		GenerationConfig: generationConfig{
			MaxOutputTokens: 256,
			Temperature:     0.1,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := infra.CheckResponse("gemini", resp); err != nil {
		return nil, err
	}

	var result response
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("gemini error: %s", result.Error.Message)
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	var (
		calls []domain.FunctionCall
		reply string
	)
	for _, p := range result.Candidates[0].Content.Parts {
		if p.FunctionCall == nil {
			reply += p.Text
			continue
		}
		args := string(p.FunctionCall.Args)
		if args == "" || args == "null" {
			args = "{}"
		}
		calls = append(calls, domain.FunctionCall{Name: domain.FunctionName(p.FunctionCall.Name), Arguments: args})
	}

	if len(calls) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoFunctionCall, reply)
	}

	return calls, nil
}

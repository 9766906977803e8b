package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"voice-cart/internal/application"
	"voice-cart/internal/domain"
	"voice-cart/internal/infra/proxy"
)

type ProductLister interface {
	Products() []domain.Product
}

type Options struct {
	// ProxyEndpoints serves api/AzureAI/GetText and ProcessTranscript.
	ProxyEndpoints bool
	RateLimit      int
	RateWindow     time.Duration
	MaxUploadBytes int64
}

type App struct {
	assistant *application.Assistant
	catalog   ProductLister
	opts      Options
	limiter   *RateLimiter
	logger    *slog.Logger
	started   time.Time
}

func NewApp(assistant *application.Assistant, catalog ProductLister, opts Options, logger *slog.Logger) *App {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	return &App{
		assistant: assistant,
		catalog:   catalog,
		opts:      opts,
		limiter:   NewRateLimiter(opts.RateLimit, opts.RateWindow),
		logger:    logger,
		started:   time.Now(),
	}
}

type outcomeResponse struct {
	Process string `json:"process"`
	Args    string `json:"args"`
	Error   string `json:"error,omitempty"`
}

type resultResponse struct {
	Text     string            `json:"text"`
	Outcomes []outcomeResponse `json:"outcomes"`
	Cart     []domain.CartLine `json:"cart"`
}

type cartResponse struct {
	Cart []domain.CartLine `json:"cart"`
}

func newResultResponse(result *application.Result) resultResponse {
	resp := resultResponse{
		Text:     result.Text,
		Outcomes: make([]outcomeResponse, 0, len(result.Outcomes)),
		Cart:     nonNil(result.Lines),
	}
	for _, o := range result.Outcomes {
		out := outcomeResponse{Process: string(o.Call.Name), Args: o.Call.Arguments}
		if o.Err != nil {
			out.Error = domain.UserMessage(o.Err)
		}
		resp.Outcomes = append(resp.Outcomes, out)
	}
	return resp
}

func nonNil(lines []domain.CartLine) []domain.CartLine {
	if lines == nil {
		return []domain.CartLine{}
	}
	return lines
}

// readFormFile pulls the uploaded clip out of a multipart request.
func (a *App) readFormFile(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, a.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.opts.MaxUploadBytes); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return nil, false
	}

	file, _, err := r.FormFile(proxy.FormFileField)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "missing_file", fmt.Sprintf("form field %q is required", proxy.FormFileField))
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return nil, false
	}
	if len(data) == 0 {
		WriteJSONError(w, http.StatusBadRequest, "empty_audio", "")
		return nil, false
	}
	return data, true
}

func (a *App) readPrompt(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req proxy.ProcessTranscriptRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return "", false
	}
	return req.PromptMessage, true
}

func (a *App) getTextHandler(w http.ResponseWriter, r *http.Request) {
	data, ok := a.readFormFile(w, r)
	if !ok {
		return
	}

	text, err := a.assistant.Transcribe(r.Context(), data)
	if err != nil {
		a.logger.Warn("transcription failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, proxy.GetTextResponse{Text: text})
}

func (a *App) processTranscriptHandler(w http.ResponseWriter, r *http.Request) {
	prompt, ok := a.readPrompt(w, r)
	if !ok {
		return
	}

	calls, err := a.assistant.Interpret(r.Context(), prompt)
	switch {
	case errors.Is(err, domain.ErrNoFunctionCall), errors.Is(err, domain.ErrEmptyTranscript):
		writeJSON(w, http.StatusOK, proxy.ProcessTranscriptResponse{Status: proxy.StatusFailure, Tools: []proxy.Tool{}})
		return
	case err != nil:
		a.logger.Warn("completion failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, proxy.ProcessTranscriptResponse{
		Status: proxy.StatusSuccess,
		Tools:  proxy.ToolsFromCalls(calls),
	})
}

func (a *App) productsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"products": a.catalog.Products()})
}

func (a *App) getCartHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, cartResponse{Cart: nonNil(a.assistant.Cart().Lines())})
}

func (a *App) clearCartHandler(w http.ResponseWriter, _ *http.Request) {
	a.assistant.Dispatcher().ClearCart()
	writeJSON(w, http.StatusOK, cartResponse{Cart: []domain.CartLine{}})
}

func (a *App) callHandler(w http.ResponseWriter, r *http.Request) {
	var tool proxy.Tool
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&tool); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if tool.Process == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "process is required")
		return
	}

	call := domain.FunctionCall{Name: domain.FunctionName(tool.Process), Arguments: tool.Args}
	if err := a.assistant.Dispatcher().Dispatch(call); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cartResponse{Cart: nonNil(a.assistant.Cart().Lines())})
}

func (a *App) voiceHandler(w http.ResponseWriter, r *http.Request) {
	data, ok := a.readFormFile(w, r)
	if !ok {
		return
	}

	result, err := a.assistant.HandleAudio(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newResultResponse(result))
}

func (a *App) transcriptHandler(w http.ResponseWriter, r *http.Request) {
	prompt, ok := a.readPrompt(w, r)
	if !ok {
		return
	}

	result, err := a.assistant.Process(r.Context(), prompt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newResultResponse(result))
}

func (a *App) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"uptime_s":   int(time.Since(a.started).Seconds()),
		"cart_lines": a.assistant.Cart().Len(),
	})
}

package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"voice-cart/internal/application"
	"voice-cart/internal/catalog"
	"voice-cart/internal/domain"
)

type mockAudioSource struct {
	commands [][]byte
	index    int
}

func (m *mockAudioSource) Start(_ context.Context) error { return nil }
func (m *mockAudioSource) Stop() error                   { return nil }
func (m *mockAudioSource) Name() string                  { return "mock" }

func (m *mockAudioSource) NextCommand(ctx context.Context) ([]byte, error) {
	if m.index >= len(m.commands) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	audio := m.commands[m.index]
	m.index++
	return audio, nil
}

type mockSTT struct {
	transcriptions map[string]string
	calls          int
	container      domain.Container
	err            error
}

func (m *mockSTT) Transcribe(_ context.Context, audio []byte, container domain.Container) (string, error) {
	m.calls++
	m.container = container
	if m.err != nil {
		return "", m.err
	}
	if text, ok := m.transcriptions[string(audio)]; ok {
		return text, nil
	}
	return "unknown order", nil
}

type upperTranscoder struct{ err error }

func (u *upperTranscoder) Transcode(audio []byte) ([]byte, error) {
	if u.err != nil {
		return nil, u.err
	}
	return append([]byte("wav:"), audio...), nil
}

type mockCompleter struct {
	mu        sync.Mutex
	calls     map[string][]domain.FunctionCall
	err       error
	functions []domain.FunctionSpec
	done      chan struct{}
	expected  int
	seen      int
}

func (m *mockCompleter) Complete(_ context.Context, text string, functions []domain.FunctionSpec) ([]domain.FunctionCall, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.functions = functions
	m.seen++
	if m.done != nil && m.seen == m.expected {
		defer close(m.done)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.calls[text], nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Notify(_ context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingNotifier) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func newAssistant(audio application.AudioSource, tc application.Transcoder, stt application.SpeechToText, completer application.Completer, notifier application.Notifier) *application.Assistant {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat := catalog.Default()
	dispatcher := application.NewDispatcher(cat, application.NewCart(), logger)
	return application.NewAssistant(audio, tc, stt, completer, dispatcher, cat, notifier, logger)
}

func TestAssistant_RunProcessesClips(t *testing.T) {
	done := make(chan struct{})
	audioSource := &mockAudioSource{
		commands: [][]byte{
			[]byte("clip-1"),
			[]byte("clip-2"),
		},
	}

	stt := &mockSTT{
		transcriptions: map[string]string{
			"wav:clip-1": "add two kilos of potato",
			"wav:clip-2": "make it three",
		},
	}

	completer := &mockCompleter{
		done:     done,
		expected: 2,
		calls: map[string][]domain.FunctionCall{
			"add two kilos of potato": {{Name: domain.FuncAddProduct, Arguments: `{"name":"Potato","quantity":2}`}},
			"make it three":           {{Name: domain.FuncUpdateQuantity, Arguments: `{"name":"Potato","quantity":3}`}},
		},
	}

	assistant := newAssistant(audioSource, &upperTranscoder{}, stt, completer, &application.NoopNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- assistant.Run(ctx)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for clips to be processed")
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Run: got %v, want context.Canceled", err)
	}

	lines := assistant.Cart().Lines()
	if len(lines) != 1 || lines[0].Quantity != 3 {
		t.Errorf("unexpected cart: %+v", lines)
	}
}

func TestAssistant_TextCommandSkipsSTT(t *testing.T) {
	stt := &mockSTT{}
	completer := &mockCompleter{
		calls: map[string][]domain.FunctionCall{
			"add milk": {{Name: domain.FuncAddProduct, Arguments: `{"name":"Milk","quantity":1}`}},
		},
	}

	assistant := newAssistant(nil, &upperTranscoder{}, stt, completer, &application.NoopNotifier{})

	result, err := assistant.HandleAudio(context.Background(), []byte(domain.TextCommandPrefix+"add milk"))
	if err != nil {
		t.Fatalf("HandleAudio: %v", err)
	}
	if stt.calls != 0 {
		t.Error("STT should not be called for text commands")
	}
	if len(result.Lines) != 1 || result.Lines[0].Name != "Milk" {
		t.Errorf("unexpected lines: %+v", result.Lines)
	}
}

func TestAssistant_ProcessOffersCartFunctions(t *testing.T) {
	completer := &mockCompleter{}
	assistant := newAssistant(nil, nil, &mockSTT{}, completer, &recordingNotifier{})

	_, _ = assistant.Process(context.Background(), "hello")

	if len(completer.functions) != 4 {
		t.Fatalf("expected 4 functions, got %d", len(completer.functions))
	}
	names := map[domain.FunctionName]bool{}
	for _, f := range completer.functions {
		names[f.Name] = true
	}
	for _, want := range []domain.FunctionName{domain.FuncAddProduct, domain.FuncRemoveProduct, domain.FuncUpdateQuantity, domain.FuncClearCart} {
		if !names[want] {
			t.Errorf("missing function %s", want)
		}
	}
}

func TestAssistant_ProcessNoFunctionCall(t *testing.T) {
	notifier := &recordingNotifier{}
	assistant := newAssistant(nil, nil, &mockSTT{}, &mockCompleter{}, notifier)

	_, err := assistant.Process(context.Background(), "what's the weather")
	if !errors.Is(err, domain.ErrNoFunctionCall) {
		t.Fatalf("expected ErrNoFunctionCall, got %v", err)
	}

	msgs := notifier.all()
	if len(msgs) != 1 || msgs[0] != domain.MsgClarify {
		t.Errorf("unexpected alerts: %v", msgs)
	}
}

func TestAssistant_ProcessCompletionError(t *testing.T) {
	notifier := &recordingNotifier{}
	completer := &mockCompleter{err: errors.New("boom")}
	assistant := newAssistant(nil, nil, &mockSTT{}, completer, notifier)

	_, err := assistant.Process(context.Background(), "add potato")
	if !errors.Is(err, domain.ErrCompletion) {
		t.Fatalf("expected ErrCompletion, got %v", err)
	}

	msgs := notifier.all()
	if len(msgs) != 1 || msgs[0] != domain.MsgCompletionError {
		t.Errorf("unexpected alerts: %v", msgs)
	}
}

func TestAssistant_ProcessReportsRejectedCalls(t *testing.T) {
	notifier := &recordingNotifier{}
	completer := &mockCompleter{
		calls: map[string][]domain.FunctionCall{
			"add durian and milk": {
				{Name: domain.FuncAddProduct, Arguments: `{"name":"Durian","quantity":1}`},
				{Name: domain.FuncAddProduct, Arguments: `{"name":"Milk","quantity":1}`},
			},
		},
	}
	assistant := newAssistant(nil, nil, &mockSTT{}, completer, notifier)

	result, err := assistant.Process(context.Background(), "add durian and milk")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(result.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(result.Outcomes))
	}
	if !errors.Is(result.Outcomes[0].Err, domain.ErrUnknownProduct) {
		t.Errorf("first outcome: got %v", result.Outcomes[0].Err)
	}
	if result.Outcomes[1].Err != nil {
		t.Errorf("second outcome: got %v", result.Outcomes[1].Err)
	}
	if len(result.Lines) != 1 {
		t.Errorf("expected one line, got %d", len(result.Lines))
	}

	msgs := notifier.all()
	if len(msgs) != 1 || msgs[0] != "We do not have Durian" {
		t.Errorf("unexpected alerts: %v", msgs)
	}
}

func TestAssistant_EmptyTranscript(t *testing.T) {
	notifier := &recordingNotifier{}
	assistant := newAssistant(nil, nil, &mockSTT{}, &mockCompleter{}, notifier)

	_, err := assistant.Process(context.Background(), "   ")
	if !errors.Is(err, domain.ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
}

func TestAssistant_TranscodePassthrough(t *testing.T) {
	stt := &mockSTT{transcriptions: map[string]string{"webm-bytes": "add banana"}}
	tc := &upperTranscoder{err: domain.ErrUnsupportedAudio}
	assistant := newAssistant(nil, tc, stt, &mockCompleter{}, &application.NoopNotifier{})

	text, err := assistant.Transcribe(context.Background(), []byte("webm-bytes"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "add banana" {
		t.Errorf("text: got %q, want %q", text, "add banana")
	}
}

func TestAssistant_TranscribeLabelsContainer(t *testing.T) {
	ogg := []byte("OggS-order")

	tests := []struct {
		name string
		tc   application.Transcoder
		want domain.Container
	}{
		{"passthrough keeps sniffed format", &upperTranscoder{err: domain.ErrUnsupportedAudio}, domain.ContainerOgg},
		{"no transcoder", nil, domain.ContainerOgg},
		{"transcoded clip is wav", &upperTranscoder{}, domain.ContainerWAV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stt := &mockSTT{}
			assistant := newAssistant(nil, tt.tc, stt, &mockCompleter{}, &application.NoopNotifier{})

			if _, err := assistant.Transcribe(context.Background(), ogg); err != nil {
				t.Fatalf("Transcribe: %v", err)
			}
			if stt.container != tt.want {
				t.Errorf("container: got %q, want %q", stt.container, tt.want)
			}
		})
	}
}

func TestAssistant_TranscribeRejectedFormatAlerts(t *testing.T) {
	notifier := &recordingNotifier{}
	stt := &mockSTT{err: domain.ErrUnsupportedAudio}
	assistant := newAssistant(nil, nil, stt, &mockCompleter{}, notifier)

	_, err := assistant.Transcribe(context.Background(), []byte{0x1A, 0x45, 0xDF, 0xA3})
	if !errors.Is(err, domain.ErrUnsupportedAudio) {
		t.Fatalf("expected ErrUnsupportedAudio, got %v", err)
	}
	if stt.container != domain.ContainerWebM {
		t.Errorf("container: got %q", stt.container)
	}
	if msgs := notifier.all(); len(msgs) != 1 || msgs[0] != domain.UserMessage(domain.ErrUnsupportedAudio) {
		t.Errorf("unexpected alerts: %v", msgs)
	}
}

func TestAssistant_TranscodeSilent(t *testing.T) {
	notifier := &recordingNotifier{}
	tc := &upperTranscoder{err: domain.ErrSilentAudio}
	stt := &mockSTT{}
	assistant := newAssistant(nil, tc, stt, &mockCompleter{}, notifier)

	_, err := assistant.Transcribe(context.Background(), []byte("quiet"))
	if !errors.Is(err, domain.ErrSilentAudio) {
		t.Fatalf("expected ErrSilentAudio, got %v", err)
	}
	if stt.calls != 0 {
		t.Error("STT should not be called for silent clips")
	}
	if len(notifier.all()) != 1 {
		t.Errorf("expected one alert, got %v", notifier.all())
	}
}

func TestAssistant_InterpretLeavesCartAlone(t *testing.T) {
	notifier := &recordingNotifier{}
	completer := &mockCompleter{
		calls: map[string][]domain.FunctionCall{
			"add milk": {{Name: domain.FuncAddProduct, Arguments: `{"name":"Milk","quantity":1}`}},
		},
	}
	assistant := newAssistant(nil, nil, &mockSTT{}, completer, notifier)

	calls, err := assistant.Interpret(context.Background(), "add milk")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if len(calls) != 1 || calls[0].Name != domain.FuncAddProduct {
		t.Errorf("unexpected calls: %+v", calls)
	}
	if assistant.Cart().Len() != 0 {
		t.Error("Interpret must not touch the cart")
	}
	if len(notifier.all()) != 0 {
		t.Errorf("Interpret must not alert: %v", notifier.all())
	}
}

type gateCompleter struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gateCompleter) Complete(_ context.Context, _ string, _ []domain.FunctionSpec) ([]domain.FunctionCall, error) {
	g.entered <- struct{}{}
	<-g.release
	return []domain.FunctionCall{{Name: domain.FuncClearCart, Arguments: "{}"}}, nil
}

func TestAssistant_ProcessBusy(t *testing.T) {
	completer := &gateCompleter{entered: make(chan struct{}, 1), release: make(chan struct{})}
	assistant := newAssistant(nil, nil, &mockSTT{}, completer, &application.NoopNotifier{})

	errCh := make(chan error, 1)
	go func() {
		_, err := assistant.Process(context.Background(), "clear the cart")
		errCh <- err
	}()

	select {
	case <-completer.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first call never reached the completer")
	}

	if _, err := assistant.Process(context.Background(), "clear the cart"); !errors.Is(err, application.ErrBusy) {
		t.Errorf("second call: got %v, want ErrBusy", err)
	}

	close(completer.release)
	if err := <-errCh; err != nil {
		t.Fatalf("first call: %v", err)
	}

	// The guard is released once the first call returns.
	completer.release = make(chan struct{})
	close(completer.release)
	if _, err := assistant.Process(context.Background(), "clear the cart"); err != nil {
		t.Errorf("call after release: %v", err)
	}
}

func TestAssistant_TranscribeBusy(t *testing.T) {
	stt := &gateSTT{entered: make(chan struct{}, 1), release: make(chan struct{})}
	assistant := newAssistant(nil, nil, stt, &mockCompleter{}, &application.NoopNotifier{})

	errCh := make(chan error, 1)
	go func() {
		_, err := assistant.Transcribe(context.Background(), []byte("clip"))
		errCh <- err
	}()

	select {
	case <-stt.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first call never reached speech-to-text")
	}

	if _, err := assistant.Transcribe(context.Background(), []byte("clip")); !errors.Is(err, application.ErrBusy) {
		t.Errorf("second call: got %v, want ErrBusy", err)
	}

	close(stt.release)
	if err := <-errCh; err != nil {
		t.Fatalf("first call: %v", err)
	}
}

type gateSTT struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gateSTT) Transcribe(_ context.Context, _ []byte, _ domain.Container) (string, error) {
	g.entered <- struct{}{}
	<-g.release
	return "clear the cart", nil
}

func TestAssistant_RunWithoutSource(t *testing.T) {
	assistant := newAssistant(nil, nil, &mockSTT{}, &mockCompleter{}, &application.NoopNotifier{})
	if err := assistant.Run(context.Background()); err == nil {
		t.Error("expected error without audio source")
	}
}

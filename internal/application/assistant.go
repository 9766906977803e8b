package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"voice-cart/internal/domain"
)

var ErrBusy = errors.New("another request is in flight")

// Outcome is the result of dispatching one function call.
type Outcome struct {
	Call domain.FunctionCall
	Err  error
}

type Result struct {
	Text     string
	Outcomes []Outcome
	Lines    []domain.CartLine
}

type Assistant struct {
	audio      AudioSource
	transcoder Transcoder
	stt        SpeechToText
	completer  Completer
	dispatcher *Dispatcher
	catalog    ProductCatalog
	notifier   Notifier
	logger     *slog.Logger

	transcribing atomic.Bool
	processing   atomic.Bool
}

func NewAssistant(
	audio AudioSource,
	transcoder Transcoder,
	stt SpeechToText,
	completer Completer,
	dispatcher *Dispatcher,
	catalog ProductCatalog,
	notifier Notifier,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		audio:      audio,
		transcoder: transcoder,
		stt:        stt,
		completer:  completer,
		dispatcher: dispatcher,
		catalog:    catalog,
		notifier:   notifier,
		logger:     logger,
	}
}

func (a *Assistant) Cart() *Cart {
	return a.dispatcher.Cart()
}

func (a *Assistant) Dispatcher() *Dispatcher {
	return a.dispatcher
}

func (a *Assistant) Run(ctx context.Context) error {
	if a.audio == nil {
		return fmt.Errorf("no audio source configured")
	}

	a.logger.Info("starting audio source", "source", a.audio.Name())
	if err := a.audio.Start(ctx); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer a.audio.Stop()

	a.logger.Info("assistant ready, listening for orders")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := a.processOneCommand(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Error("processing command", "error", err)
			}
		}
	}
}

func (a *Assistant) processOneCommand(ctx context.Context) error {
	audioData, err := a.audio.NextCommand(ctx)
	if err != nil {
		return fmt.Errorf("getting audio: %w", err)
	}

	if len(audioData) == 0 {
		return nil
	}

	result, err := a.HandleAudio(ctx, audioData)
	if err != nil {
		return err
	}

	a.logger.Info("cart updated", "text", result.Text, "lines", len(result.Lines))
	return nil
}

// HandleAudio transcribes a clip (or takes a text command as is) and applies
// the resulting cart calls.
func (a *Assistant) HandleAudio(ctx context.Context, audio []byte) (*Result, error) {
	var text string

	if directText, isText := isTextCommand(audio); isText {
		a.logger.Info("received text command directly", "text", directText)
		text = directText
	} else {
		var err error
		text, err = a.Transcribe(ctx, audio)
		if err != nil {
			return nil, err
		}
	}

	return a.Process(ctx, text)
}

// Transcribe normalises the clip to 16 kHz mono PCM and sends it to the
// speech-to-text backend.
func (a *Assistant) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if !a.transcribing.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer a.transcribing.Store(false)

	a.logger.Info("received audio", "bytes", len(audio))

	clip := audio
	container := domain.DetectContainer(audio)
	if a.transcoder != nil {
		converted, err := a.transcoder.Transcode(audio)
		switch {
		case err == nil:
			clip = converted
			container = domain.ContainerWAV
			a.logger.Debug("audio transcoded", "in_bytes", len(audio), "out_bytes", len(converted))
		case errors.Is(err, domain.ErrUnsupportedAudio):
			a.logger.Debug("passing audio through untouched", "container", container, "reason", err)
		default:
			a.alert(ctx, err)
			return "", fmt.Errorf("transcoding: %w", err)
		}
	}

	text, err := a.stt.Transcribe(ctx, clip, container)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedAudio) {
			a.alert(ctx, err)
		}
		return "", fmt.Errorf("transcribing: %w", err)
	}

	a.logger.Info("transcribed", "text", text)
	return text, nil
}

// Process asks the completion backend which cart functions the transcript
// calls and applies them in order. Per-call failures are reported in the
// outcomes and surfaced to the notifier; only completion failures are
// returned as an error.
func (a *Assistant) Process(ctx context.Context, text string) (*Result, error) {
	if !a.processing.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer a.processing.Store(false)

	text = strings.TrimSpace(text)
	if text == "" {
		a.alert(ctx, domain.ErrEmptyTranscript)
		return nil, domain.ErrEmptyTranscript
	}

	calls, err := a.Interpret(ctx, text)
	if err != nil {
		a.alert(ctx, err)
		return nil, err
	}

	result := &Result{Text: text}
	for _, call := range calls {
		a.logger.Info("function call", "name", call.Name, "args", call.Arguments)

		err := a.dispatcher.Dispatch(call)
		if err != nil {
			a.logger.Warn("cart call rejected", "name", call.Name, "error", err)
			a.alert(ctx, err)
		}
		result.Outcomes = append(result.Outcomes, Outcome{Call: call, Err: err})
	}

	result.Lines = a.Cart().Lines()
	return result, nil
}

// Interpret returns the cart calls the completion backend picks for text
// without applying them.
func (a *Assistant) Interpret(ctx context.Context, text string) ([]domain.FunctionCall, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyTranscript
	}

	calls, err := a.completer.Complete(ctx, text, CartFunctions(a.catalog.Names()))
	if err != nil {
		if errors.Is(err, domain.ErrNoFunctionCall) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrCompletion, err)
	}
	if len(calls) == 0 {
		return nil, domain.ErrNoFunctionCall
	}
	return calls, nil
}

func (a *Assistant) alert(ctx context.Context, err error) {
	if notifyErr := a.notifier.Notify(ctx, domain.UserMessage(err)); notifyErr != nil {
		a.logger.Error("notifying user", "error", notifyErr)
	}
}

func isTextCommand(data []byte) (string, bool) {
	if len(data) > len(domain.TextCommandPrefix) && string(data[:len(domain.TextCommandPrefix)]) == domain.TextCommandPrefix {
		return string(data[len(domain.TextCommandPrefix):]), true
	}
	return "", false
}

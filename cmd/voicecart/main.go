package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"voice-cart/config"
	"voice-cart/internal/application"
	"voice-cart/internal/catalog"
	"voice-cart/internal/infra/anthropic"
	"voice-cart/internal/infra/audio"
	"voice-cart/internal/infra/azure"
	"voice-cart/internal/infra/gemini"
	"voice-cart/internal/infra/homeassistant"
	"voice-cart/internal/infra/httpapi"
	"voice-cart/internal/infra/notify"
	"voice-cart/internal/infra/openai"
	"voice-cart/internal/infra/proxy"
	"voice-cart/internal/infra/pushover"
	"voice-cart/internal/infra/wav"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	if err := run(cfg, logger); err != nil {
		logger.Error("voice cart stopped", "error", err)
		os.Exit(1)
	}
}

type service struct {
	catalog   *catalog.Registry
	reload    time.Duration
	assistant *application.Assistant
	server    *httpapi.Server
	audio     application.AudioSource
	logger    *slog.Logger
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := withSignals(context.Background(), logger)
	defer cancel()

	svc, err := build(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("starting voice cart",
		"backend", cfg.Backend,
		"completion", cfg.Completion.Provider,
		"audio_source", cfg.Audio.Source,
	)

	return svc.run(ctx)
}

func build(cfg *config.Config, logger *slog.Logger) (*service, error) {
	products, err := catalog.NewRegistry(cfg.Catalog.File, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("catalog", "summary", products.Summary())

	stt, err := newSpeechToText(cfg)
	if err != nil {
		return nil, err
	}
	completer, err := newCompleter(cfg)
	if err != nil {
		return nil, err
	}

	var transcoder application.Transcoder
	if cfg.Audio.Transcode {
		format := application.DefaultAudioFormat()
		transcoder = wav.NewTranscoder(format.SampleRate, cfg.Audio.TrimThreshold, cfg.Audio.TrimSilence)
	}

	dispatcher := application.NewDispatcher(
		products,
		application.NewCart(),
		logger,
		application.WithQuantityLimits(cfg.Cart.EnforceLimits),
	)

	audioSource := createAudioSource(cfg.Audio, logger)

	assistant := application.NewAssistant(
		audioSource,
		transcoder,
		stt,
		completer,
		dispatcher,
		products,
		newNotifier(cfg, logger),
		logger,
	)

	app := httpapi.NewApp(assistant, products, httpapi.Options{
		ProxyEndpoints: servesProxyEndpoints(cfg),
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     cfg.Server.RateWindow,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	}, logger)

	return &service{
		catalog:   products,
		reload:    cfg.Catalog.ReloadInterval,
		assistant: assistant,
		server:    httpapi.NewServer(cfg.Server.Addr, httpapi.NewRouter(app), logger),
		audio:     audioSource,
		logger:    logger,
	}, nil
}

// run serves HTTP and, when an audio source is configured, the listening
// loop until ctx ends or either fails.
func (s *service) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	s.catalog.StartPeriodicSync(gctx, s.reload)

	g.Go(func() error {
		return s.server.Run(gctx)
	})
	if s.audio != nil {
		g.Go(func() error {
			if err := s.assistant.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("assistant: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// servesProxyEndpoints reports whether this server may stand in for the AI
// proxy. It must not when either half of the pipeline is itself the proxy.
func servesProxyEndpoints(cfg *config.Config) bool {
	return cfg.Backend != config.BackendProxy && cfg.Completion.Provider != config.BackendProxy
}

func newSpeechToText(cfg *config.Config) (application.SpeechToText, error) {
	switch cfg.Backend {
	case config.BackendOpenAI:
		if cfg.OpenAI.BaseURL != "" {
			return openai.NewWhisperClientWithURL(cfg.OpenAI.APIKey, cfg.OpenAI.Language, cfg.OpenAI.BaseURL), nil
		}
		return openai.NewWhisperClient(cfg.OpenAI.APIKey, cfg.OpenAI.Language), nil
	case config.BackendAzure:
		return azure.NewSpeechClient(cfg.Azure.SpeechKey, cfg.Azure.SpeechRegion, cfg.Azure.Language), nil
	case config.BackendProxy:
		return proxy.NewClient(cfg.Proxy.BaseURL), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func newCompleter(cfg *config.Config) (application.Completer, error) {
	switch cfg.Completion.Provider {
	case config.BackendOpenAI:
		if cfg.OpenAI.BaseURL != "" {
			return openai.NewChatClientWithURL(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL), nil
		}
		return openai.NewChatClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model), nil
	case config.BackendAzure:
		return azure.NewChatClient(cfg.Azure.OpenAIKey, cfg.Azure.OpenAIEndpoint, cfg.Azure.Deployment, cfg.Azure.APIVersion), nil
	case config.BackendProxy:
		return proxy.NewClient(cfg.Proxy.BaseURL), nil
	case config.ProviderAnthropic:
		return anthropic.NewClaudeClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model), nil
	case config.ProviderGemini:
		return gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model), nil
	}
	return nil, fmt.Errorf("unknown completion provider %q", cfg.Completion.Provider)
}

func newNotifier(cfg *config.Config, logger *slog.Logger) application.Notifier {
	notifiers := notify.Multi{&application.LogNotifier{Logger: logger}}
	if cfg.Notify.Desktop {
		notifiers = append(notifiers, notify.NewDesktop())
	}
	if cfg.Pushover.Enabled {
		notifiers = append(notifiers, pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey))
	}
	if cfg.HomeAssist.Enabled {
		notifiers = append(notifiers, homeassistant.NewClient(cfg.HomeAssist.BaseURL, cfg.HomeAssist.Token, cfg.HomeAssist.Service))
	}
	return notifiers
}

func createAudioSource(cfg config.AudioConfig, logger *slog.Logger) application.AudioSource {
	switch cfg.Source {
	case "file":
		return audio.NewFileSource(cfg.FileDir, logger)
	case "microphone":
		return audio.NewMicrophoneSource(cfg.SampleRate, int16(cfg.SilenceThreshold), logger)
	default:
		return nil
	}
}

func withSignals(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(ch)
		select {
		case <-ctx.Done():
		case sig := <-ch:
			logger.Info("shutting down", "signal", sig.String())
			cancel()
		}
	}()

	return ctx, cancel
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", cfg.Service)
}

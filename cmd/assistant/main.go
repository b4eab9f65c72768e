package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loan-assistant/config"
	"loan-assistant/internal/application"
	"loan-assistant/internal/cli"
	"loan-assistant/internal/httpserver"
	"loan-assistant/internal/infra/audio"
	"loan-assistant/internal/infra/azureopenai"
	"loan-assistant/internal/infra/azurespeech"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	serve := flag.Bool("serve", false, "run the HTTP API instead of the console")
	watch := flag.Bool("watch", false, "answer WAV files dropped into audio.watch_dir")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	completer := azureopenai.NewClient(clientSettings(cfg), logger)
	session := application.NewSession(
		completer,
		createTranscriber(cfg),
		audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.ChunkSize, logger),
		createSpeaker(cfg, logger),
		logger,
	)

	switch {
	case *serve:
		err = runServer(ctx, cfg, session, completer, logger)
	case *watch:
		err = runWatcher(ctx, cfg, session, logger)
	default:
		err = cli.NewConsole(session, completer, cfg.Audio.RecordSeconds).Run(ctx)
	}
	if err != nil && err != context.Canceled {
		logger.Error("assistant error", "error", err)
		os.Exit(1)
	}
}

func clientSettings(cfg *config.Config) azureopenai.Settings {
	settings := azureopenai.Settings{
		Endpoint:     cfg.AzureOpenAI.Endpoint,
		APIKey:       cfg.AzureOpenAI.APIKey,
		Deployment:   cfg.AzureOpenAI.Deployment,
		APIVersion:   cfg.AzureOpenAI.APIVersion,
		SystemPrompt: cfg.Chat.SystemPrompt,
	}
	if cfg.SearchEnabled() {
		settings.Search = &azureopenai.SearchSettings{
			Endpoint: cfg.AzureSearch.Endpoint,
			APIKey:   cfg.AzureSearch.APIKey,
			Index:    cfg.AzureSearch.Index,
		}
	}
	return settings
}

func createTranscriber(cfg *config.Config) application.Transcriber {
	if !cfg.RecognitionEnabled() {
		return application.NoopTranscriber{}
	}
	return azurespeech.NewRecognizer(cfg.AzureSpeech.APIKey, cfg.AzureSpeech.Region, cfg.AzureSpeech.Language)
}

func createSpeaker(cfg *config.Config, logger *slog.Logger) application.Speaker {
	if !cfg.Chat.Speak || !cfg.SpeechEnabled() {
		return application.NoopSpeaker{}
	}
	player := audio.NewPlayer(cfg.Audio.ChunkSize, logger)
	return azurespeech.NewSynthesizer(
		cfg.AzureSpeech.APIKey,
		cfg.AzureSpeech.Region,
		cfg.AzureSpeech.Voice,
		cfg.AzureSpeech.Language,
		player,
		logger,
	)
}

func runServer(ctx context.Context, cfg *config.Config, session *application.Session, prober httpserver.Prober, logger *slog.Logger) error {
	server := httpserver.New(session, prober)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutting down server", "error", err)
		}
	}()

	logger.Info("HTTP API listening", "addr", cfg.Server.Addr)
	if err := server.Start(cfg.Server.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func runWatcher(ctx context.Context, cfg *config.Config, session *application.Session, logger *slog.Logger) error {
	dir := cfg.Audio.WatchDir
	if dir == "" {
		dir = "audio-inbox"
	}

	handler := func(ctx context.Context, path string) error {
		result := session.TranscribeFile(ctx, path)
		if !result.Recognized() {
			logger.Warn("transcription failed", "path", path,
				"outcome", result.Outcome, "detail", result.Detail)
			return nil
		}
		logger.Info("transcribed", "path", path, "text", result.Text)

		processed, err := session.ProcessQuery(ctx, result.Text)
		if err != nil {
			return err
		}
		logger.Info("answered", "path", path, "reply", processed.Message.Content)
		return nil
	}

	return audio.NewWatcher(dir, handler, logger).Run(ctx)
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
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

	return slog.New(handler)
}

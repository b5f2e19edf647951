package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/riverline-ai/refinery/internal/api"
	"github.com/riverline-ai/refinery/internal/config"
	"github.com/riverline-ai/refinery/internal/corpus"
	"github.com/riverline-ai/refinery/internal/events"
	"github.com/riverline-ai/refinery/internal/gemini"
	"github.com/riverline-ai/refinery/internal/optimizer"
	"github.com/riverline-ai/refinery/internal/prompts"
	"github.com/riverline-ai/refinery/internal/skills"
	"github.com/riverline-ai/refinery/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("refinery starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis — all durable learning state lives here.
	kv, err := store.NewRedis(ctx, store.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer kv.Close()
	slog.Info("redis connected", "addr", cfg.RedisAddr)

	// Gemini oracles.
	if cfg.GeminiAPIKey == "" {
		slog.Error("GEMINI_API_KEY is required")
		os.Exit(1)
	}
	llm, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EmbedModel)
	if err != nil {
		slog.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	slog.Info("gemini client ready", "model", cfg.GeminiModel, "embed_model", cfg.EmbedModel)

	// Learning-loop components.
	sk := skills.New(kv, llm, slog.Default())
	co := corpus.New(kv, slog.Default())
	pr := prompts.New(kv)

	if err := co.SeedDefaults(ctx); err != nil {
		slog.Error("failed to seed test corpus", "error", err)
		os.Exit(1)
	}
	if _, err := pr.Base(ctx); errors.Is(err, prompts.ErrNoPromptConfigured) {
		if err := pr.SetBase(ctx, prompts.DefaultBasePrompt); err != nil {
			slog.Error("failed to seed base prompt", "error", err)
			os.Exit(1)
		}
		slog.Info("seeded base prompt")
	} else if err != nil {
		slog.Error("failed to read base prompt", "error", err)
		os.Exit(1)
	}

	proc := optimizer.New(sk, co, pr, llm, optimizer.Options{
		DeployThreshold: cfg.DeployThreshold,
		MinSkillQuality: cfg.MinSkillQuality,
	}, slog.Default())

	// NATS consumer (optional — without it, outcomes arrive over HTTP only).
	if cfg.NatsURL != "" {
		nc, err := events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)

		consumer := events.NewConsumer(nc, proc, cfg.PassRetries, slog.Default())
		if err := consumer.Start(); err != nil {
			slog.Error("failed to subscribe to call events", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("NATS not configured — running without event consumer")
	}

	// HTTP API.
	srv := api.NewServer(cfg.Port, sk, proc, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("refinery ready", "port", cfg.Port)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("refinery stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

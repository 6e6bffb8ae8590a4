package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/BerylCAtieno/persona-schedule-generator/internal/a2a"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/config"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/generator"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/llm"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	log := logger.New(os.Stdout, slog.LevelInfo)

	cfg, err := config.Load(os.Getenv("GENERATOR_CONFIG"))
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log = logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel))

	tables, err := config.LoadTables(cfg.PromptsPath, cfg.ExamplesPath)
	if err != nil {
		log.Error("failed to load prompt tables", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	client, err := llm.New(ctx, llm.Options{
		Provider:  cfg.Provider,
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		log.Error("failed to create model client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	opts := []generator.Option{
		generator.WithLogger(log),
		generator.WithTemperatures(generator.Temperatures(cfg.Temperature)),
	}
	if cfg.ScheduleModel != "" && cfg.ScheduleModel != cfg.Model {
		scheduleClient, err := llm.New(ctx, llm.Options{
			Provider:  cfg.Provider,
			APIKey:    cfg.APIKey,
			Model:     cfg.ScheduleModel,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
		})
		if err != nil {
			log.Error("failed to create schedule model client", "error", err)
			os.Exit(1)
		}
		defer scheduleClient.Close()
		opts = append(opts, generator.WithScheduleCompleter(scheduleClient))
	}

	gen := generator.New(tables, client, opts...)
	handler := a2a.NewA2AHandler(gen, log)

	gin.SetMode(gin.ReleaseMode)
	router := a2a.NewRouter(handler, log)

	port := cfg.Port
	log.Info("Persona Schedule Generator starting", "port", port, "provider", cfg.Provider)
	log.Info("Agent card available", "url", "http://localhost:"+port+"/.well-known/agent.json")
	log.Info("A2A endpoint available", "url", "http://localhost:"+port+"/a2a/generator")

	if err := router.Run(":" + port); err != nil {
		log.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}

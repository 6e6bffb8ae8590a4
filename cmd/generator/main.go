// Command generator creates one persona and its schedule and prints both.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BerylCAtieno/persona-schedule-generator/internal/config"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/generator"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/llm"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/logger"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/schema"
	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config    string `short:"f" long:"config" description:"YAML config path"`
	Guidance  string `short:"g" long:"guidance" default:"A 23-year-old Asian female." description:"short persona description"`
	StartDate string `short:"s" long:"start" default:"2024-01-05" description:"first schedule day (YYYY-MM-DD)"`
	EndDate   string `short:"e" long:"end" default:"2024-01-11" description:"last schedule day (YYYY-MM-DD)"`
	Validate  bool   `long:"validate" description:"decode the schedule and print one entry per line"`
	Verbose   bool   `short:"v" long:"verbose" description:"debug logging"`
}

func main() {
	opts := &Options{}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Println(err)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *Options) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if opts.Verbose {
		level = slog.LevelDebug
	}
	log := logger.New(os.Stderr, level)

	tables, err := config.LoadTables(cfg.PromptsPath, cfg.ExamplesPath)
	if err != nil {
		return err
	}

	client, err := llm.New(ctx, llm.Options{
		Provider:  cfg.Provider,
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	genOpts := []generator.Option{
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
			return err
		}
		defer scheduleClient.Close()
		genOpts = append(genOpts, generator.WithScheduleCompleter(scheduleClient))
	}
	gen := generator.New(tables, client, genOpts...)

	persona, err := gen.GenerateProfile(ctx, opts.Guidance)
	if err != nil {
		return err
	}
	fmt.Println(persona)

	schedule, err := gen.GenerateSchedule(ctx, persona, opts.StartDate, opts.EndDate)
	if err != nil {
		return err
	}

	if !opts.Validate {
		fmt.Println(schedule)
		return nil
	}

	parsed, err := schema.DecodeSchedule(schedule)
	if err != nil {
		return err
	}
	for _, entry := range parsed.Schedule {
		fmt.Printf("%s - %s  %s @ %s (%.4f, %.4f)\n",
			entry.StartTime, entry.EndTime, entry.Event, entry.Address, entry.Latitude, entry.Longitude)
	}
	return nil
}

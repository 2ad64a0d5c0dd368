package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voyago-poc/server/internal/adapters/llm"
	"github.com/voyago-poc/server/internal/adapters/serp"
	"github.com/voyago-poc/server/internal/adapters/weather"
	"github.com/voyago-poc/server/internal/checkpoint"
	"github.com/voyago-poc/server/internal/config"
	"github.com/voyago-poc/server/internal/core"
	"github.com/voyago-poc/server/internal/graph"
	"github.com/voyago-poc/server/internal/graph/steps"
	"github.com/voyago-poc/server/internal/memory"
	"github.com/voyago-poc/server/internal/storage"
	logx "github.com/voyago-poc/server/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "voyago",
	Short: "Voyago is a multi-step travel planning assistant",
	Long:  `Voyago plans trips end to end: weather, community highlights, flight and accommodation search with budget checks, and a generated day-by-day itinerary.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg          *config.AppConfig
	graph        *graph.Runnable
	generator    steps.Generator
	preferences  steps.PreferenceStore
	store        *storage.Store
	checkpointer graph.Checkpointer
	close        func()
}

// bootstrap loads configuration and wires every collaborator into a
// compiled planning graph.
func bootstrap(ctx context.Context, userID string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	rdb, err := cfg.Redis.New()
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("open trip store: %w", err)
	}

	gen, err := llm.NewGenerator(ctx, cfg.LLM())
	if err != nil {
		rdb.Close()
		store.Close()
		return nil, fmt.Errorf("build generator: %w", err)
	}

	ttl, err := cfg.CheckpointTTL()
	if err != nil {
		rdb.Close()
		store.Close()
		return nil, err
	}

	serpClient := serp.NewClient(cfg.Serp)
	prefs := memory.NewRedisPreferenceStore(rdb)

	runnable, err := steps.Build(steps.Deps{
		Flights:     serpClient,
		Hotels:      serpClient,
		Community:   serpClient,
		Weather:     weather.NewClient(cfg.Weather),
		Generator:   gen,
		Store:       store,
		Preferences: prefs,
		UserID:      userID,
	})
	if err != nil {
		rdb.Close()
		store.Close()
		return nil, fmt.Errorf("compile planning graph: %w", err)
	}

	return &app{
		cfg:          cfg,
		graph:        runnable,
		generator:    gen,
		preferences:  prefs,
		store:        store,
		checkpointer: checkpoint.NewRedisCheckpointer(rdb, ttl),
		close: func() {
			store.Close()
			rdb.Close()
		},
	}, nil
}

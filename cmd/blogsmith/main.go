// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command blogsmith runs the interactive blog-writing workflow.
//
// Usage:
//
//	blogsmith write --topic "Structured concurrency in Go"
//	blogsmith write --topic "ADK features" --codebase ./adk
//	blogsmith runs --config config.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/kadirpekel/blogsmith/pkg/config"
	"github.com/kadirpekel/blogsmith/pkg/digest"
	"github.com/kadirpekel/blogsmith/pkg/export"
	"github.com/kadirpekel/blogsmith/pkg/logger"
	"github.com/kadirpekel/blogsmith/pkg/model"
	"github.com/kadirpekel/blogsmith/pkg/model/anthropic"
	"github.com/kadirpekel/blogsmith/pkg/model/gemini"
	"github.com/kadirpekel/blogsmith/pkg/observability"
	"github.com/kadirpekel/blogsmith/pkg/pipeline"
	"github.com/kadirpekel/blogsmith/pkg/session"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Write   WriteCmd   `cmd:"" help:"Run the blog-writing workflow."`
	Runs    RunsCmd    `cmd:"" help:"List persisted runs."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:""`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("blogsmith version %s\n", version)
	return nil
}

// WriteCmd runs one end-to-end workflow run.
type WriteCmd struct {
	Topic    string `required:"" help:"Blog post topic."`
	Codebase string `help:"Directory to digest into codebase context." type:"path"`

	// Overrides for the config file's llm section
	Provider  string   `help:"LLM provider (gemini, anthropic)."`
	Model     string   `help:"Model name."`
	APIKey    string   `name:"api-key" help:"API key (defaults to provider environment variable)."`
	MaxTokens int      `name:"max-tokens" help:"Max tokens for generation."`
	Temp      *float64 `name:"temperature" help:"Temperature for generation."`
}

func (c *WriteCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	c.applyOverrides(cfg)

	llm, err := buildModel(cfg)
	if err != nil {
		return err
	}
	defer llm.Close()

	pipelineCfg := pipeline.Config{
		Model:         llm,
		Interviewer:   newConsoleInterviewer(),
		Digester:      digest.New(digest.WithMaxFileSize(cfg.Digest.MaxFileSize)),
		Exporter:      export.New(cfg.Pipeline.OutputDir),
		MaxIterations: cfg.Pipeline.MaxIterations,
	}

	if cfg.Session.Enabled {
		recorder, err := session.Open(cfg.Session.Path)
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		defer recorder.Close()
		pipelineCfg.Recorder = recorder
		slog.Info("Run persistence enabled", "path", cfg.Session.Path)
	}

	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics()
		pipelineCfg.Metrics = metrics

		srv := observability.NewServer(cfg.Metrics.Addr, metrics)
		srv.Start()
		defer func() {
			_ = srv.Shutdown(context.Background())
		}()
		slog.Info("Metrics endpoint enabled", "addr", cfg.Metrics.Addr)
	}

	sequencer, err := pipeline.NewSequencer(pipelineCfg)
	if err != nil {
		return err
	}

	result, err := sequencer.Run(ctx, pipeline.RunParams{
		Topic:        c.Topic,
		CodebasePath: c.Codebase,
	})
	if err != nil {
		return err
	}

	if result.ExportPath != "" {
		fmt.Printf("\nDone. Post written to %s\n", result.ExportPath)
	} else {
		fmt.Println("\nDone. Export skipped.")
	}
	return nil
}

func (c *WriteCmd) applyOverrides(cfg *config.Config) {
	if c.Provider != "" {
		cfg.LLM.Provider = config.LLMProvider(c.Provider)
	}
	if c.Model != "" {
		cfg.LLM.Model = c.Model
	}
	if c.APIKey != "" {
		cfg.LLM.APIKey = c.APIKey
	}
	if c.MaxTokens > 0 {
		cfg.LLM.MaxTokens = c.MaxTokens
	}
	if c.Temp != nil {
		cfg.LLM.Temperature = c.Temp
	}
}

// RunsCmd lists persisted runs.
type RunsCmd struct{}

func (c *RunsCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	recorder, err := session.Open(cfg.Session.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer recorder.Close()

	runs, err := recorder.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %-10s  %s  %s\n",
			run.ID, run.Status, run.UpdatedAt.Format("2006-01-02 15:04"), run.Topic)
	}
	return nil
}

func loadConfig(cli *CLI) (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	if cli.Config != "" {
		slog.Info("Loaded configuration", "path", cli.Config)
	}
	return cfg, nil
}

// buildModel constructs the configured LLM provider.
func buildModel(cfg *config.Config) (model.LLM, error) {
	switch cfg.LLM.Provider {
	case config.LLMProviderGemini:
		geminiCfg := gemini.Config{
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
		}
		if cfg.LLM.Temperature != nil {
			geminiCfg.Temperature = *cfg.LLM.Temperature
		}
		return gemini.New(geminiCfg)

	case config.LLMProviderAnthropic:
		return anthropic.New(anthropic.Config{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			BaseURL:     cfg.LLM.BaseURL,
		})

	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.LLM.Provider)
	}
}

func initLogger(cli *CLI, cfg *config.Config) (func(), error) {
	levelStr := cli.LogLevel
	if levelStr == "" {
		levelStr = cfg.Logging.Level
	}
	level, _ := logger.ParseLevel(levelStr)

	output := os.Stderr
	cleanup := func() {}

	path := cli.LogFile
	if path == "" {
		path = cfg.Logging.File
	}
	if path != "" {
		file, closeFile, err := logger.OpenLogFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		cleanup = closeFile
	}

	logger.Init(level, output, cli.LogFormat)
	return cleanup, nil
}

func main() {
	_ = godotenv.Load()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("blogsmith"),
		kong.Description("blogsmith - interactive LLM blog-writing workflow"),
		kong.UsageOnError(),
	)

	// The config file may steer logging, so load it before the command runs.
	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cleanup, err := initLogger(&cli, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/subglot/subglot/internal/cache"
	"github.com/subglot/subglot/internal/config"
	"github.com/subglot/subglot/internal/httpapi"
	"github.com/subglot/subglot/internal/llm"
	"github.com/subglot/subglot/internal/progress"
	"github.com/subglot/subglot/internal/service"
	"github.com/subglot/subglot/internal/tmdb"
	"github.com/subglot/subglot/internal/translator"
	"github.com/subglot/subglot/pkg/log"
)

func newServeCommand() *cobra.Command {
	var addrFlag string
	var staticDirFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the subtitle translation web service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewFromEnv()
			if err != nil {
				return err
			}
			if addrFlag != "" {
				cfg.Server.ListenAddr = addrFlag
			}
			return runServer(cmd.Context(), cfg, staticDirFlag)
		},
	}

	cmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address, overrides LISTEN_ADDR")
	cmd.Flags().StringVar(&staticDirFlag, "static-dir", "./static", "Directory with the web UI assets")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, staticDir string) error {
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	settings, err := config.LoadSettings(cfg.SettingsPath())
	if err != nil {
		return err
	}

	store, err := cache.NewStore(cfg.CachePath())
	if err != nil {
		return fmt.Errorf("failed to open translation cache: %w", err)
	}
	defer store.Close()

	broadcaster := progress.NewBroadcaster()
	defer broadcaster.Close()

	// Mirror every log line to SSE subscribers.
	log.AddSink(func(level log.LogLevel, message string) {
		broadcaster.PublishLog(level.String(), message)
	})

	searcher := &tmdb.DynamicSearcher{
		Credentials: func() (string, string) {
			return settings.Get().TMDBAPIKey, "en-US"
		},
	}

	factory := func(s config.Settings, description string) service.FileTranslator {
		llmCfg := llmConfig(cfg, s)
		client, err := llm.NewClient(&llmCfg)
		if err != nil {
			return failingTranslator{err: err}
		}
		return translator.New(client, store, translator.Options{
			Language:          s.Language,
			LanguageCode:      s.LanguageCode,
			Model:             s.Model,
			BatchSize:         s.BatchSize,
			Description:       description,
			AddTranslatorInfo: s.AddTranslatorInfo,
		})
	}

	orchestrator := service.NewOrchestrator(settings, broadcaster, searcher, factory,
		cfg.UploadDir(), cfg.TranslatedDir())

	cleaner := service.NewCleaner(
		[]string{cfg.UploadDir(), cfg.TranslatedDir()},
		time.Duration(cfg.Maintenance.RetentionHours)*time.Hour,
	)
	if err := cleaner.Start(cfg.Maintenance.CleanupCron); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	defer cleaner.Stop()

	uiEnabled := false
	if _, err := os.Stat(staticDir); err == nil {
		uiEnabled = true
	}

	server := httpapi.NewServer(orchestrator, settings, store, broadcaster,
		cfg.UploadDir(), cfg.TranslatedDir(),
		httpapi.WithSearcher(searcher),
		httpapi.WithUI(staticDir, uiEnabled),
	)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening on %s", cfg.Server.ListenAddr)
		errCh <- server.ListenAndServe(cfg.Server.ListenAddr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	case sig := <-stop:
		log.Info("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// failingTranslator surfaces a broken LLM configuration as a per-file
// failure instead of crashing the run.
type failingTranslator struct {
	err error
}

func (f failingTranslator) TranslateFile(context.Context, string, string, func(int, int)) error {
	return translator.WrapError(f.err, translator.ErrValidation, "llm client not configured")
}

var _ service.FileTranslator = failingTranslator{}

// llmConfig merges the static endpoint configuration with the runtime
// settings. The secondary key is a fallback for when the primary is blank.
func llmConfig(cfg *config.Config, s config.Settings) llm.Config {
	apiKey := s.GeminiAPIKey
	if apiKey == "" {
		apiKey = s.GeminiAPIKey2
	}
	thinkingBudget := 0
	if s.Thinking {
		thinkingBudget = s.ThinkingBudget
	}
	return llm.Config{
		APIKey:         apiKey,
		APIURL:         cfg.LLM.APIURL,
		Model:          s.Model,
		MaxTokens:      cfg.LLM.MaxTokens,
		Temperature:    s.Temperature,
		TopP:           s.TopP,
		TopK:           s.TopK,
		ThinkingBudget: thinkingBudget,
		Stream:         s.Streaming,
		Timeout:        cfg.LLM.Timeout,
	}
}

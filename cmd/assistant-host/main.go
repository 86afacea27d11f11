// assistant-host is the native-messaging backend for the reply-suggestion
// browser extension. The extension's service worker forwards
// {action, data} envelopes over the browser's native-messaging bridge;
// the host dispatches them to the suggestion pipeline and replies with
// {success, data} or {success:false, error, errorKind}.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"replyassist/internal/assistant"
	"replyassist/internal/config"
	"replyassist/internal/gemini"
	"replyassist/internal/logging"
	"replyassist/internal/storage"
)

var (
	configPath string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "assistant-host",
	Short: "Native-messaging host for the reply suggestion extension",
	Long: `assistant-host serves the browser extension over stdin/stdout using
Chrome's native-messaging framing (uint32 little-endian length prefix
followed by a JSON envelope). It owns the local SQLite settings store
and the Gemini model client.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	home, _ := os.UserHomeDir()
	defaultConfig := filepath.Join(home, ".replyassist", "config.yaml")
	rootCmd.Flags().StringVar(&configPath, "config", defaultConfig, "path to the host config file")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "override the settings database path")
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}

	logger, err := logging.New(cfg.Logging.File, cfg.Logging.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Sync()

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open settings store: %w", err)
	}
	defer store.Close()

	client := gemini.NewClient(gemini.Config{
		BaseURL:         cfg.Model.BaseURL,
		Model:           cfg.Model.Name,
		Timeout:         cfg.ModelTimeout(),
		Temperature:     cfg.Model.Temperature,
		MaxOutputTokens: cfg.Model.MaxOutputTokens,
		TopP:            cfg.Model.TopP,
		TopK:            cfg.Model.TopK,
	}, logger.Named("gemini"))

	orch := assistant.New(store, client, logger.Named("assistant"), assistant.Options{
		PadSuggestions: cfg.PadSuggestions,
	})

	logger.Info("assistant-host started",
		zap.String("model", cfg.Model.Name),
		zap.String("db", cfg.Storage.DatabasePath))

	return serve(os.Stdin, os.Stdout, orch, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

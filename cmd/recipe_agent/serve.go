package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/camille/recipe-importer/internal/config"
	"github.com/camille/recipe-importer/internal/server"
)

var (
	serveConfigPath string
	servePort       int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for creating, polling, and cancelling recipe imports.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	var cfg config.Config
	if serveConfigPath != "" {
		loadedCfg, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	cfg = cfg.MergeWithDefaults(config.Config{
		Port:             8080,
		TempDir:          os.TempDir(),
		SweepIntervalMin: 30,
	})

	// Env vars fill in what neither flags nor the config file set
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	srv, err := server.New(server.Config{
		Port:               cfg.Port,
		DatabaseURL:        cfg.DatabaseURL,
		APIKey:             cfg.APIKey,
		Model:              cfg.Model,
		TempDir:            cfg.TempDir,
		MaxMediaBytes:      cfg.MaxMediaMB << 20,
		DownloadTimeout:    time.Duration(cfg.DownloadTimeoutSec) * time.Second,
		SweepInterval:      time.Duration(cfg.SweepIntervalMin) * time.Minute,
		UseBrowser:         cfg.UseBrowser,
		FileWaitTimeout:    time.Duration(cfg.FileWaitTimeoutSec) * time.Second,
		FilePollInterval:   time.Duration(cfg.FilePollIntervalSec) * time.Second,
		MaxExtractAttempts: cfg.MaxExtractAttempts,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/camille/recipe-importer/internal/config"
	"github.com/camille/recipe-importer/internal/extraction"
	"github.com/camille/recipe-importer/internal/gemini"
	"github.com/camille/recipe-importer/internal/media"
	"github.com/camille/recipe-importer/internal/observability"
	"github.com/camille/recipe-importer/internal/pipeline"
	"github.com/camille/recipe-importer/internal/scraper"
	"github.com/camille/recipe-importer/internal/store"
	"github.com/camille/recipe-importer/internal/types"
)

var importCommand = &cobra.Command{
	Use:   "import <post-url>",
	Short: "Import a recipe from a social media post",
	Long: `Runs the full import pipeline synchronously: scrape the post, download its media, upload to Gemini, extract and validate the recipe, and persist it.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportCmd,
}

var (
	importConfigPath  string
	importAPIKey      string
	importDatabaseURL string
	importModel       string
	importUseBrowser  bool
	importVerbose     bool
)

func init() {
	importCommand.Flags().StringVar(&importConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	importCommand.Flags().StringVar(&importAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	importCommand.Flags().StringVar(&importDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	importCommand.Flags().StringVar(&importModel, "model", "", "Gemini model name")
	importCommand.Flags().BoolVar(&importUseBrowser, "use-browser", false, "Use headless browser for script-rendered posts (requires Chrome)")
	importCommand.Flags().BoolVarP(&importVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(importCommand)
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	postURL := args[0]

	var cfg config.Config
	if importConfigPath != "" {
		loadedCfg, err := config.LoadConfig(importConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
		if importVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", importConfigPath)
		}
	}

	// CLI overrides take priority over the config file
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = importAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = importDatabaseURL
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = importModel
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = importUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = importVerbose
	}
	cfg = cfg.MergeWithDefaults(config.Config{TempDir: os.TempDir()})

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("Gemini API key is required (--api-key or GEMINI_API_KEY)")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL is required (--db-url or DATABASE_URL)")
	}

	database, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	client, err := gemini.New(ctx, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer func() { _ = client.Close() }()
	if cfg.Model != "" {
		client = client.WithModel(cfg.Model)
	}

	downloader, err := media.NewDownloader(cfg.TempDir)
	if err != nil {
		return fmt.Errorf("failed to prepare media directory: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	pipelineCfg := pipeline.Config{
		DownloadTimeout:    time.Duration(cfg.DownloadTimeoutSec) * time.Second,
		MaxMediaBytes:      cfg.MaxMediaMB << 20,
		FileWaitTimeout:    time.Duration(cfg.FileWaitTimeoutSec) * time.Second,
		FilePollInterval:   time.Duration(cfg.FilePollIntervalSec) * time.Second,
		MaxExtractAttempts: cfg.MaxExtractAttempts,
	}
	if cfg.Verbose {
		pipelineCfg.OnProgress = func(ev pipeline.Event) {
			_, _ = fmt.Fprintf(os.Stdout, "[%3d%%] %s: %s\n", ev.Progress, ev.Stage, ev.Message)
		}
	}

	orchestrator := pipeline.New(
		database,
		database,
		scraper.NewHTTPScraper(scraper.Options{UseBrowser: cfg.UseBrowser}),
		downloader,
		client,
		extraction.NewService(client),
		pipelineCfg,
	)

	rec, err := database.CreateImport(ctx, postURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create import: %w", err)
	}
	if err := orchestrator.Run(ctx, rec.ID); err != nil {
		return err
	}

	final, err := database.GetImport(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to load import result: %w", err)
	}
	if final == nil {
		return fmt.Errorf("import record %s disappeared", rec.ID)
	}

	printer.PrintImportRecord(final)

	if final.Status != types.StatusReady {
		return fmt.Errorf("import failed: %s", final.Error)
	}
	if cfg.Verbose && final.RecipeID != nil {
		stored, err := database.GetRecipe(ctx, *final.RecipeID)
		if err == nil && stored != nil {
			printer.PrintRecipe(stored.Data)
		}
	}
	_, _ = fmt.Fprintf(os.Stdout, "Recipe saved: %s\n", final.RecipeID)
	return nil
}

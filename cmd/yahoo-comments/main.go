package main

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"yahoo-comments-scraper/internal/app"
	"yahoo-comments-scraper/internal/config"
	"yahoo-comments-scraper/internal/credentials"
	"yahoo-comments-scraper/internal/fetcher"
	"yahoo-comments-scraper/internal/gdrive"
	"yahoo-comments-scraper/internal/gsheet"
	"yahoo-comments-scraper/internal/normalize"
	"yahoo-comments-scraper/internal/observability"
	"yahoo-comments-scraper/internal/scraper"
	"yahoo-comments-scraper/internal/storage/mssql"
)

var sheetDateRe = regexp.MustCompile(`^\d{6}$`)

type flags struct {
	configPath string
	date       string
	dryRun     bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "yahoo-comments",
		Short:         "Scrape Yahoo! News articles and comments listed in a Google Sheet",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := run(cmd.Context(), f)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "configs/config.yaml", "path to config YAML")
	cmd.Flags().StringVar(&f.date, "date", "", "sheet name YYMMDD (default: today in spreadsheet.sheet_timezone)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "scrape and export xlsx without touching the output spreadsheet")

	return cmd
}

func run(parent context.Context, f flags) error {
	// .env необязателен: в CI ключ приходит переменной окружения
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	selectors, err := cfg.LoadSiteSelectors(f.configPath)
	if err != nil {
		return fmt.Errorf("load selectors: %w", err)
	}

	runID := uuid.NewString()
	baseLogger := observability.NewLogger(observability.Options{
		LogPath:    cfg.Observability.LogPath,
		LogLevel:   cfg.Observability.LogLevel,
		MaxSizeMB:  cfg.Observability.LogMaxSizeMB,
		MaxBackups: cfg.Observability.LogMaxBackups,
		MaxAgeDays: cfg.Observability.LogMaxAgeDays,
	})
	defer func() { _ = baseLogger.Close() }()
	logger := baseLogger.With("run_id", runID)

	ctx, cancel := app.GracefulShutdown(parent, logger)
	defer cancel()

	sheetName, err := resolveSheetName(cfg, f.date)
	if err != nil {
		return err
	}

	creds, err := credentials.Load(cfg.Credentials.File, cfg.Credentials.EnvVar)
	if err != nil {
		logger.Error("Credentials unavailable", "error", err.Error())
		return fmt.Errorf("load credentials: %w", err)
	}

	sheetsClient, err := gsheet.NewClient(ctx, creds, cfg.Spreadsheet, logger)
	if err != nil {
		return err
	}

	deps := app.Deps{
		Input:     sheetsClient,
		Extractor: scraper.NewSelectorExtractor(selectors, normalize.NewNormalizer(cfg.Normalize)),
		OpenSession: func(ctx context.Context) (app.Session, error) {
			return fetcher.OpenBrowser(ctx, cfg, logger)
		},
	}

	if cfg.Fetch.Mode == config.FetchModeHTTP {
		deps.ArticleSource = fetcher.NewFetcher(cfg, logger)
	}

	xlsxEnabled := cfg.Export.XLSXEnabled || f.dryRun

	if !f.dryRun {
		deps.Output = sheetsClient
		if cfg.Spreadsheet.WriteBackCounts {
			deps.Counts = sheetsClient
		}

		if xlsxEnabled && cfg.Export.DriveFolderID != "" {
			uploader, err := gdrive.NewUploader(ctx, creds, cfg.Export.DriveFolderID, logger)
			if err != nil {
				return err
			}
			deps.Uploader = uploader
		}

		if cfg.Storage.Enabled {
			repo, err := mssql.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
			if err != nil {
				return fmt.Errorf("connect archive: %w", err)
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("Failed to close archive", "error", err.Error())
				}
			}()
			deps.Archive = repo
		}
	}

	orch := app.NewOrchestrator(deps, app.Options{
		Paginator: scraper.PaginatorOptions{
			MaxPages:            cfg.Fetch.MaxPages,
			MaxCommentPages:     cfg.Fetch.MaxCommentPages,
			PageParam:           cfg.Fetch.PageParam,
			CommentWaitSelector: selectors.CommentItem,
		},
		Layout:      cfg.Layout,
		XLSXEnabled: xlsxEnabled,
		XLSXDir:     cfg.Export.XLSXDir,
		RunID:       runID,
	}, logger)

	logger.Info("Run configured",
		"sheet", sheetName,
		"fetch_mode", cfg.Fetch.Mode,
		"orientation", string(cfg.Layout.Orientation),
		"dry_run", f.dryRun,
	)

	stats, err := orch.Run(ctx, sheetName)
	if err != nil {
		logger.Error("Run failed", "sheet", sheetName, "error", err.Error())
		return err
	}

	if stats.StoppedEarly {
		return fmt.Errorf("run interrupted after %d of %d URLs", stats.Articles+stats.ArticleErrors, stats.URLs)
	}

	return nil
}

func resolveSheetName(cfg *config.Config, date string) (string, error) {
	if date != "" {
		if !sheetDateRe.MatchString(date) {
			return "", fmt.Errorf("--date must be YYMMDD, got %q", date)
		}
		if _, err := time.Parse(app.SheetNameLayout, date); err != nil {
			return "", fmt.Errorf("--date: %w", err)
		}
		return date, nil
	}

	loc, err := cfg.SheetLocation()
	if err != nil {
		return "", err
	}
	return app.SheetName(time.Now().In(loc)), nil
}

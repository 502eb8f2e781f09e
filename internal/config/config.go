package config

import (
	"fmt"
	"time"

	"yahoo-comments-scraper/internal/layout"
	"yahoo-comments-scraper/internal/normalize"
)

type Config struct {
	Spreadsheet   SpreadsheetConfig   `yaml:"spreadsheet"`
	Credentials   CredentialsConfig   `yaml:"credentials"`
	Fetch         FetchConfig         `yaml:"fetch"`
	HTTP          HttpConfig          `yaml:"http"`
	Rod           RodConfig           `yaml:"rod"`
	SelectorsFile string              `yaml:"selectors_file"`
	Normalize     normalize.Options   `yaml:"normalize"`
	Layout        layout.Schema       `yaml:"layout"`
	Export        ExportConfig        `yaml:"export"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type SpreadsheetConfig struct {
	InputID  string `yaml:"input_id"`
	OutputID string `yaml:"output_id"`
	// Колонка со ссылками во входном листе, читаем со второй строки
	URLColumn     string `yaml:"url_column"`
	SheetRows     int    `yaml:"sheet_rows"`
	SheetCols     int    `yaml:"sheet_cols"`
	SheetTimezone string `yaml:"sheet_timezone"`
	// Число комментариев (или 取得失敗) пишется обратно во входной лист
	WriteBackCounts bool   `yaml:"write_back_counts"`
	CountColumn     string `yaml:"count_column"`
}

type CredentialsConfig struct {
	File   string `yaml:"file"`
	EnvVar string `yaml:"env_var"`
}

type FetchConfig struct {
	// browser — всё через rod; http — статьи по HTTP, комментарии всё равно через rod
	Mode            string `yaml:"mode"`
	MaxPages        int    `yaml:"max_pages"`
	MaxCommentPages int    `yaml:"max_comment_pages"`
	PageParam       string `yaml:"page_param"`
}

type HttpConfig struct {
	UserAgent      string `yaml:"user_agent"`
	TotalTimeoutMS int    `yaml:"total_timeout_ms"`
	AcceptLanguage string `yaml:"accept_language"`
	RespectRobots  bool   `yaml:"respect_robots"`
	RobotsCacheTTL int    `yaml:"robots_cache_ttl_hours"`
}

type RodConfig struct {
	ChromePath          string `yaml:"chrome_path"`
	Headless            bool   `yaml:"headless"`
	Lang                string `yaml:"lang"`
	PageTimeoutS        int    `yaml:"page_timeout_s"`
	CommentWaitTimeoutS int    `yaml:"comment_wait_timeout_s"`
}

type ExportConfig struct {
	XLSXEnabled   bool   `yaml:"xlsx_enabled"`
	XLSXDir       string `yaml:"xlsx_dir"`
	DriveFolderID string `yaml:"drive_folder_id"`
}

type StorageConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type ObservabilityConfig struct {
	LogPath       string `yaml:"log_path"`
	LogLevel      string `yaml:"log_level"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
}

const (
	FetchModeBrowser = "browser"
	FetchModeHTTP    = "http"
)

// applyDefaults — значения, которые можно не указывать в YAML
func (c *Config) applyDefaults() {
	if c.Spreadsheet.URLColumn == "" {
		c.Spreadsheet.URLColumn = "C"
	}
	if c.Spreadsheet.CountColumn == "" {
		c.Spreadsheet.CountColumn = "F"
	}
	if c.Spreadsheet.SheetRows <= 0 {
		c.Spreadsheet.SheetRows = 1000
	}
	if c.Spreadsheet.SheetCols <= 0 {
		c.Spreadsheet.SheetCols = 300
	}
	if c.Credentials.EnvVar == "" {
		c.Credentials.EnvVar = "GCP_SA_KEY"
	}
	if c.Fetch.Mode == "" {
		c.Fetch.Mode = FetchModeBrowser
	}
	if c.Fetch.PageParam == "" {
		c.Fetch.PageParam = "page"
	}
	if c.Rod.Lang == "" {
		c.Rod.Lang = "ja-JP"
	}
	if c.Export.XLSXDir == "" {
		c.Export.XLSXDir = "."
	}
	if c.HTTP.RobotsCacheTTL <= 0 {
		c.HTTP.RobotsCacheTTL = 12
	}
	c.Layout = c.Layout.WithDefaults()
}

// Validation
func (c *Config) Validate() error {
	if c.Spreadsheet.InputID == "" {
		return fmt.Errorf("spreadsheet.input_id is required")
	}
	if c.Spreadsheet.OutputID == "" {
		return fmt.Errorf("spreadsheet.output_id is required")
	}
	if c.SelectorsFile == "" {
		return fmt.Errorf("selectors_file is required")
	}
	if c.Fetch.Mode != FetchModeBrowser && c.Fetch.Mode != FetchModeHTTP {
		return fmt.Errorf("fetch.mode must be 'browser' or 'http'")
	}
	if c.Fetch.MaxPages <= 0 {
		return fmt.Errorf("fetch.max_pages must be > 0")
	}
	if c.Fetch.MaxCommentPages <= 0 {
		return fmt.Errorf("fetch.max_comment_pages must be > 0")
	}
	if c.Fetch.Mode == FetchModeHTTP {
		if c.HTTP.UserAgent == "" {
			return fmt.Errorf("http.user_agent is required when fetch.mode is 'http'")
		}
		if c.HTTP.TotalTimeoutMS <= 0 {
			return fmt.Errorf("http.total_timeout_ms must be > 0")
		}
	}
	if c.Rod.PageTimeoutS <= 0 {
		return fmt.Errorf("rod.page_timeout_s must be > 0")
	}
	if c.Rod.CommentWaitTimeoutS <= 0 {
		return fmt.Errorf("rod.comment_wait_timeout_s must be > 0")
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if c.Storage.Enabled {
		if c.Storage.Driver != "mssql" {
			return fmt.Errorf("storage.driver must be 'mssql'")
		}
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required when storage.enabled is true")
		}
		if c.Storage.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.command_timeout_ms must be > 0")
		}
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	return nil
}

// Getters
func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.HTTP.RobotsCacheTTL) * time.Hour
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetCommentWaitTimeout() time.Duration {
	return time.Duration(c.Rod.CommentWaitTimeoutS) * time.Second
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

// SheetLocation — часовой пояс для имени листа YYMMDD; пусто — локальные часы
func (c *Config) SheetLocation() (*time.Location, error) {
	if c.Spreadsheet.SheetTimezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Spreadsheet.SheetTimezone)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet.sheet_timezone: %w", err)
	}
	return loc, nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yahoo-comments-scraper/internal/layout"
)

const minimalConfig = `
spreadsheet:
  input_id: "in"
  output_id: "out"
selectors_file: "selectors/site.yaml"
fetch:
  max_pages: 10
  max_comment_pages: 20
rod:
  page_timeout_s: 30
  comment_wait_timeout_s: 5
observability:
  log_level: "info"
`

const siteSelectors = `
title_selectors: ["title"]
title_suffix: " - Yahoo!ニュース"
body_container: "article"
body_paragraphs: "p"
comment_item: "article.c"
comment_text: "p"
comments_url_template: "https://news.example/articles/{id}/comments"
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, minimalConfig)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Spreadsheet.URLColumn != "C" {
		t.Errorf("URLColumn = %q, want C", cfg.Spreadsheet.URLColumn)
	}
	if cfg.Fetch.Mode != FetchModeBrowser {
		t.Errorf("Fetch.Mode = %q, want browser", cfg.Fetch.Mode)
	}
	if cfg.Credentials.EnvVar != "GCP_SA_KEY" {
		t.Errorf("Credentials.EnvVar = %q", cfg.Credentials.EnvVar)
	}
	if cfg.Spreadsheet.CountColumn != "F" || cfg.Spreadsheet.WriteBackCounts {
		t.Errorf("count write-back defaults: column %q, enabled %v", cfg.Spreadsheet.CountColumn, cfg.Spreadsheet.WriteBackCounts)
	}
	if cfg.Layout.CommentCells != layout.CommentsSplit {
		t.Errorf("Layout.CommentCells = %q, want split", cfg.Layout.CommentCells)
	}
	if cfg.Layout.Orientation != layout.RowPerArticle || cfg.Layout.CommentStart != 16 {
		t.Errorf("Layout defaults not applied: %+v", cfg.Layout)
	}
	if cfg.GetCommentWaitTimeout().Seconds() != 5 {
		t.Errorf("GetCommentWaitTimeout() = %v", cfg.GetCommentWaitTimeout())
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		wantErr string
	}{
		{"missing input", [2]string{`input_id: "in"`, `input_id: ""`}, "spreadsheet.input_id"},
		{"bad mode", [2]string{"max_pages: 10", "max_pages: 10\n  mode: \"ftp\""}, "fetch.mode"},
		{"zero pages", [2]string{"max_pages: 10", "max_pages: 0"}, "fetch.max_pages"},
		{"unknown field", [2]string{"observability:", "surprise: 1\nobservability:"}, "surprise"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, strings.Replace(minimalConfig, tt.replace[0], tt.replace[1], 1))

			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadSiteSelectors(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	writeFile(t, configPath, minimalConfig)
	writeFile(t, filepath.Join(dir, "selectors", "site.yaml"), siteSelectors)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	sel, err := cfg.LoadSiteSelectors(configPath)
	if err != nil {
		t.Fatalf("LoadSiteSelectors() error = %v", err)
	}
	if sel.TitleSuffix != " - Yahoo!ニュース" {
		t.Errorf("TitleSuffix = %q", sel.TitleSuffix)
	}
}

func TestLoadSelectorsRequiresPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	writeFile(t, path, strings.Replace(siteSelectors, "{id}", "ID", 1))

	if _, err := LoadSelectors(path); err == nil {
		t.Errorf("LoadSelectors() should reject template without {id}")
	}
}

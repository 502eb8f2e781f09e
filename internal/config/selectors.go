package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"yahoo-comments-scraper/internal/scraper"
)

// LoadSelectors загружает селекторы сайта из YAML файла
func LoadSelectors(filePath string) (*scraper.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read selectors file %s: %w", filePath, err)
	}

	var selectors scraper.Selectors
	if err := yaml.Unmarshal(data, &selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(&selectors); err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	return &selectors, nil
}

// LoadSiteSelectors — относительный путь считается от каталога конфига
func (c *Config) LoadSiteSelectors(configPath string) (*scraper.Selectors, error) {
	filePath := c.SelectorsFile
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(filepath.Dir(configPath), filePath)
	}
	return LoadSelectors(filePath)
}

// validateSelectors проверяет минимальный набор селекторов
func validateSelectors(s *scraper.Selectors) error {
	if len(s.TitleSelectors) == 0 {
		return fmt.Errorf("title_selectors is required")
	}
	if s.BodyContainer == "" {
		return fmt.Errorf("body_container is required")
	}
	if s.BodyParagraphs == "" {
		return fmt.Errorf("body_paragraphs is required")
	}
	if s.CommentItem == "" {
		return fmt.Errorf("comment_item is required")
	}
	if s.CommentText == "" {
		return fmt.Errorf("comment_text is required")
	}
	if !strings.Contains(s.CommentsURLTemplate, "{id}") {
		return fmt.Errorf("comments_url_template must contain {id}")
	}

	return nil
}

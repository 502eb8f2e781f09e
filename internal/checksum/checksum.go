package checksum

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateContentHash генерирует SHA256 хеш контента статьи
// Формула: SHA256(url|title|page1\npage2...|published)
func (g *Generator) GenerateContentHash(url, title string, bodyPages []string, published string) string {
	content := fmt.Sprintf("%s|%s|%s|%s", url, title, strings.Join(bodyPages, "\n"), strings.TrimSpace(published))

	hash := sha256.Sum256([]byte(content))

	return fmt.Sprintf("%x", hash)
}

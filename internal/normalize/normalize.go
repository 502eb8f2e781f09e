package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var spacesRe = regexp.MustCompile(`[ \t]+`)

type Options struct {
	TrimNBSP       bool     `yaml:"trim_nbsp"`
	CollapseSpaces bool     `yaml:"collapse_spaces"`
	StripSelectors []string `yaml:"strip_selectors"`
}

type Normalizer struct {
	opts Options
}

func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Paragraphs собирает непустые тексты элементов sel внутри container
// и склеивает их через перевод строки
func (n *Normalizer) Paragraphs(container *goquery.Selection, sel string) string {
	if container == nil || container.Length() == 0 {
		return ""
	}

	// Удаляем мусорные блоки (реклама, скрипты) на клоне, документ не трогаем
	scope := container.Clone()
	scope.Find("script, style").Remove()
	for _, strip := range n.opts.StripSelectors {
		scope.Find(strip).Remove()
	}

	var parts []string
	scope.Find(sel).Each(func(_ int, p *goquery.Selection) {
		text := n.CleanText(p.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})

	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// CleanText убирает NBSP и лишние пробелы внутри строки
func (n *Normalizer) CleanText(text string) string {
	if n.opts.TrimNBSP {
		text = strings.ReplaceAll(text, "\u00A0", " ")
	}

	if n.opts.CollapseSpaces {
		text = spacesRe.ReplaceAllString(text, " ")
	}

	return strings.TrimSpace(text)
}

// NormalizeURL нормализует URL (убирает якоря и пробелы)
func NormalizeURL(urlStr string) string {
	urlStr = strings.TrimSpace(urlStr)
	if idx := strings.Index(urlStr, "#"); idx > -1 {
		urlStr = urlStr[:idx]
	}
	return urlStr
}

// IsHTTPURL — похоже ли значение ячейки на http(s) ссылку
func IsHTTPURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Host != ""
}

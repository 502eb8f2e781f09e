package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"yahoo-comments-scraper/internal/normalize"
)

// Extractor — стратегия извлечения для конкретного сайта. Пагинатор ничего
// не знает о разметке, все хрупкие селекторы живут за этим интерфейсом.
type Extractor interface {
	ExtractTitle(doc *goquery.Document) string
	ExtractPublishedAt(doc *goquery.Document) string
	ExtractBody(doc *goquery.Document) string
	ExtractComments(doc *goquery.Document, now time.Time) []CommentRecord
	IsNotFound(html string) bool
	CommentsURL(articleURL string) (string, error)
}

// SelectorExtractor реализует Extractor по набору CSS селекторов из YAML
type SelectorExtractor struct {
	selectors  *Selectors
	normalizer *normalize.Normalizer
}

func NewSelectorExtractor(selectors *Selectors, normalizer *normalize.Normalizer) *SelectorExtractor {
	return &SelectorExtractor{
		selectors:  selectors,
		normalizer: normalizer,
	}
}

func (e *SelectorExtractor) ExtractTitle(doc *goquery.Document) string {
	title := trySelectors(doc.Selection, e.selectors.TitleSelectors)
	if e.selectors.TitleSuffix != "" {
		title = strings.TrimSuffix(title, e.selectors.TitleSuffix)
	}
	return strings.TrimSpace(title)
}

func (e *SelectorExtractor) ExtractPublishedAt(doc *goquery.Document) string {
	return trySelectors(doc.Selection, e.selectors.PublishedSelectors)
}

func (e *SelectorExtractor) ExtractBody(doc *goquery.Document) string {
	container := doc.Find(e.selectors.BodyContainer).First()
	return e.normalizer.Paragraphs(container, e.selectors.BodyParagraphs)
}

func (e *SelectorExtractor) ExtractComments(doc *goquery.Document, now time.Time) []CommentRecord {
	var comments []CommentRecord

	doc.Find(e.selectors.CommentItem).Each(func(_ int, item *goquery.Selection) {
		rawTime := e.normalizer.CleanText(item.Find(e.selectors.CommentTime).First().Text())

		comments = append(comments, CommentRecord{
			Text:     e.normalizer.CleanText(item.Find(e.selectors.CommentText).First().Text()),
			PostedAt: ParseRelative(rawTime, now),
			Author:   e.normalizer.CleanText(item.Find(e.selectors.CommentAuthor).First().Text()),
		})
	})

	return comments
}

func (e *SelectorExtractor) IsNotFound(html string) bool {
	return e.selectors.NotFoundMarker != "" && strings.Contains(html, e.selectors.NotFoundMarker)
}

// CommentsURL строит адрес ленты комментариев из последнего сегмента пути статьи
func (e *SelectorExtractor) CommentsURL(articleURL string) (string, error) {
	id, err := ArticleID(articleURL)
	if err != nil {
		return "", err
	}
	if !strings.Contains(e.selectors.CommentsURLTemplate, "{id}") {
		return "", fmt.Errorf("comments_url_template has no {id} placeholder: %q", e.selectors.CommentsURLTemplate)
	}
	return strings.ReplaceAll(e.selectors.CommentsURLTemplate, "{id}", id), nil
}

// ArticleID — последний непустой сегмент пути (без query и якоря)
func ArticleID(articleURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(articleURL))
	if err != nil {
		return "", fmt.Errorf("invalid article URL: %w", err)
	}

	segments := strings.Split(strings.TrimRight(u.Path, "/"), "/")
	id := segments[len(segments)-1]
	if id == "" {
		return "", fmt.Errorf("no article id in URL: %s", articleURL)
	}

	return id, nil
}

func trySelectors(s *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		found := s.Find(selector).First()
		text := strings.TrimSpace(found.Text())
		if text != "" {
			return text
		}
		// Для <time datetime> и <meta content>
		for _, attr := range []string{"datetime", "content"} {
			if v, ok := found.Attr(attr); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

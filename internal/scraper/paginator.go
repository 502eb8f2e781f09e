package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"yahoo-comments-scraper/internal/observability"
)

const (
	DefaultMaxPages        = 10
	DefaultMaxCommentPages = 50
	DefaultPageParam       = "page"
)

type PaginatorOptions struct {
	MaxPages        int
	MaxCommentPages int
	PageParam       string
	// Селектор, появления которого ждём на странице комментариев
	CommentWaitSelector string
	// Источник для страниц комментариев; nil — тот же, что для статьи
	CommentSource PageSource
	Now           func() time.Time
}

// Paginator обходит страницы статьи и комментариев, пока не сработает условие остановки
type Paginator struct {
	source  PageSource
	extract Extractor
	opts    PaginatorOptions
	logger  *observability.Logger
}

func NewPaginator(source PageSource, extract Extractor, opts PaginatorOptions, logger *observability.Logger) *Paginator {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.MaxCommentPages <= 0 {
		opts.MaxCommentPages = DefaultMaxCommentPages
	}
	if opts.PageParam == "" {
		opts.PageParam = DefaultPageParam
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CommentSource == nil {
		opts.CommentSource = source
	}

	return &Paginator{
		source:  source,
		extract: extract,
		opts:    opts,
		logger:  logger,
	}
}

// FetchArticle собирает заголовок, дату и тексты всех страниц статьи.
// Заголовок и дата берутся с первой страницы.
func (p *Paginator) FetchArticle(ctx context.Context, baseURL string) (*ArticleRecord, error) {
	record := &ArticleRecord{URL: baseURL}
	previous := ""

	for page := 1; ; page++ {
		if page > p.opts.MaxPages {
			record.StopReason = StopPageCap
			break
		}

		pageURL, err := PageURL(baseURL, p.opts.PageParam, page)
		if err != nil {
			return nil, err
		}

		html, err := p.source.Fetch(ctx, pageURL, "")
		if err != nil {
			return nil, fmt.Errorf("fetch article page %d: %w", page, err)
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML of page %d: %w", page, err)
		}

		if page == 1 {
			record.Title = p.extract.ExtractTitle(doc)
			record.PublishedAt = p.extract.ExtractPublishedAt(doc)
		}

		if p.extract.IsNotFound(html) {
			record.StopReason = StopNotFound
			break
		}

		content := p.extract.ExtractBody(doc)
		if content == "" {
			record.StopReason = StopEmpty
			break
		}
		if content == previous {
			record.StopReason = StopRepeated
			break
		}

		record.BodyPages = append(record.BodyPages, content)
		previous = content

		p.logger.Debug("Article page extracted",
			"url", pageURL,
			"page", page,
			"chars", len(content),
		)
	}

	p.logStop("Article pagination stopped", baseURL, len(record.BodyPages), record.StopReason)

	return record, nil
}

// FetchComments обходит ленту комментариев статьи. Остановка: страница без
// комментариев или страница, чьи тексты совпадают с предыдущей страницей.
func (p *Paginator) FetchComments(ctx context.Context, articleURL string) (CommentThread, StopReason, error) {
	commentsURL, err := p.extract.CommentsURL(articleURL)
	if err != nil {
		return nil, "", err
	}

	var (
		thread   CommentThread
		previous string
		reason   StopReason
	)

	for page := 1; ; page++ {
		if page > p.opts.MaxCommentPages {
			reason = StopPageCap
			break
		}

		pageURL, err := PageURL(commentsURL, p.opts.PageParam, page)
		if err != nil {
			return nil, "", err
		}

		html, err := p.opts.CommentSource.Fetch(ctx, pageURL, p.opts.CommentWaitSelector)
		if errors.Is(err, ErrContentNotReady) {
			// Не ошибка: считаем, что на странице нет комментариев
			reason = StopNotReady
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("fetch comments page %d: %w", page, err)
		}

		if p.extract.IsNotFound(html) {
			reason = StopNotFound
			break
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse HTML of comments page %d: %w", page, err)
		}

		comments := p.extract.ExtractComments(doc, p.opts.Now())
		if len(comments) == 0 {
			reason = StopEmpty
			break
		}

		joined := joinTexts(comments)
		if joined == previous {
			reason = StopRepeated
			break
		}

		previous = joined
		thread = append(thread, comments...)
	}

	p.logStop("Comment pagination stopped", commentsURL, len(thread), reason)

	if len(thread) == 0 {
		return EmptyThread(), reason, nil
	}
	return thread, reason, nil
}

func (p *Paginator) logStop(msg, url string, items int, reason StopReason) {
	if !reason.Natural() {
		p.logger.Warn(msg+": page cap reached, markup may have changed",
			"url", url,
			"items", items,
			"reason", string(reason),
		)
		return
	}
	p.logger.Info(msg,
		"url", url,
		"items", items,
		"reason", string(reason),
	)
}

// PageURL — для первой страницы базовый адрес, дальше ?page=N
func PageURL(baseURL, param string, page int) (string, error) {
	if page <= 1 {
		return baseURL, nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", baseURL, err)
	}

	q := u.Query()
	q.Set(param, strconv.Itoa(page))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func joinTexts(comments []CommentRecord) string {
	texts := make([]string, 0, len(comments))
	for _, c := range comments {
		texts = append(texts, c.Text)
	}
	return strings.Join(texts, "\n")
}

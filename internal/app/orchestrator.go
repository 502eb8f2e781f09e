package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"yahoo-comments-scraper/internal/checksum"
	"yahoo-comments-scraper/internal/gsheet"
	"yahoo-comments-scraper/internal/layout"
	"yahoo-comments-scraper/internal/observability"
	"yahoo-comments-scraper/internal/scraper"
	"yahoo-comments-scraper/internal/storage"
	"yahoo-comments-scraper/internal/xlsx"
)

// SheetNameLayout — листы входа и выхода называются по дате запуска
const SheetNameLayout = "060102"

// CountFailed — значение колонки счётчика во входном листе, если комментарии не получены
const CountFailed = "取得失敗"

var ErrNoURLs = errors.New("no URLs in input sheet")

type InputReader interface {
	ReadInput(ctx context.Context, sheetName string) (*gsheet.Input, error)
}

type CountWriter interface {
	WriteCounts(ctx context.Context, sheetName string, counts map[int]any) error
}

type GridSink interface {
	ReplaceSheet(ctx context.Context, sheetName string, grid *layout.Grid) error
}

type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// Session — браузер, открытый на весь прогон
type Session interface {
	scraper.PageSource
	Close() error
}

type SessionOpener func(ctx context.Context) (Session, error)

type Deps struct {
	Input       InputReader
	OpenSession SessionOpener
	Extractor   scraper.Extractor
	// Необязательные: nil — шаг пропускается
	ArticleSource scraper.PageSource
	Output        GridSink
	Counts        CountWriter
	Uploader      Uploader
	Archive       storage.Repository
}

type Options struct {
	Paginator   scraper.PaginatorOptions
	Layout      layout.Schema
	XLSXEnabled bool
	XLSXDir     string
	RunID       string
	Now         func() time.Time
}

type Orchestrator struct {
	deps     Deps
	opts     Options
	logger   *observability.Logger
	checksum *checksum.Generator
}

func NewOrchestrator(deps Deps, opts Options, logger *observability.Logger) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Layout = opts.Layout.WithDefaults()

	return &Orchestrator{
		deps:     deps,
		opts:     opts,
		logger:   logger,
		checksum: checksum.NewGenerator(),
	}
}

type RunStats struct {
	SheetName       string
	URLs            int
	Articles        int
	ArticleErrors   int
	CommentErrors   int
	PageCapHits     int
	Archived        int
	Unchanged       int
	XLSXPath        string
	DriveFileID     string
	StoppedEarly    bool
	ElapsedDuration time.Duration
}

func SheetName(t time.Time) string {
	return t.Format(SheetNameLayout)
}

// Run — один прогон: читаем ссылки, открываем браузер, обходим статьи по
// порядку, раскладываем в сетку и пишем лист одним запросом.
// Ошибки отдельных статей попадают в их регион и прогон не прерывают.
func (o *Orchestrator) Run(ctx context.Context, sheetName string) (*RunStats, error) {
	started := o.opts.Now()
	stats := &RunStats{SheetName: sheetName}

	in, err := o.deps.Input.ReadInput(ctx, sheetName)
	if err != nil {
		o.logger.Error("Failed to read input sheet", "sheet", sheetName, "error", err.Error())
		return nil, fmt.Errorf("read input sheet: %w", err)
	}
	if len(in.URLs) == 0 {
		o.logger.Error("No URLs to scrape", "sheet", sheetName)
		return nil, fmt.Errorf("sheet %s: %w", sheetName, ErrNoURLs)
	}
	stats.URLs = len(in.URLs)

	o.logger.Info("Starting run",
		"sheet", sheetName,
		"urls", len(in.URLs),
	)

	entries, err := o.scrapeAll(ctx, in.URLs, stats)
	if err != nil {
		return nil, err
	}

	grid, err := layout.Build(entries, o.opts.Layout)
	if err != nil {
		return nil, fmt.Errorf("build output grid: %w", err)
	}

	// Частичный результат после сигнала тоже пишем
	flushCtx := context.WithoutCancel(ctx)

	if o.deps.Output != nil {
		if err := o.deps.Output.ReplaceSheet(flushCtx, sheetName, grid); err != nil {
			return stats, fmt.Errorf("write output sheet: %w", err)
		}
	}

	// Ошибки необязательных шагов не прерывают остальные, возвращаются в конце
	var stepErrs []error

	if o.deps.Counts != nil {
		if err := o.deps.Counts.WriteCounts(flushCtx, sheetName, commentCounts(entries, in.URLs)); err != nil {
			o.logger.Error("Count write-back failed", "sheet", sheetName, "error", err.Error())
			stepErrs = append(stepErrs, fmt.Errorf("write back counts: %w", err))
		}
	}

	o.archive(flushCtx, sheetName, entries, stats)

	if o.opts.XLSXEnabled {
		path, err := xlsx.Export(o.opts.XLSXDir, sheetName, grid, in.Rows)
		if err != nil {
			return stats, errors.Join(append(stepErrs, fmt.Errorf("export xlsx: %w", err))...)
		}
		stats.XLSXPath = path
		o.logger.Info("Workbook saved", "path", path)

		if o.deps.Uploader != nil {
			id, err := o.deps.Uploader.Upload(flushCtx, path)
			if err != nil {
				o.logger.Error("Drive upload failed", "path", path, "error", err.Error())
				stepErrs = append(stepErrs, fmt.Errorf("upload to drive: %w", err))
			}
			stats.DriveFileID = id
		}
	}

	stats.ElapsedDuration = o.opts.Now().Sub(started)

	o.logger.Info("Run completed",
		"sheet", sheetName,
		"urls", stats.URLs,
		"articles", stats.Articles,
		"article_errors", stats.ArticleErrors,
		"comment_errors", stats.CommentErrors,
		"page_cap_hits", stats.PageCapHits,
		"archived", stats.Archived,
		"unchanged", stats.Unchanged,
		"stopped_early", stats.StoppedEarly,
		"elapsed", stats.ElapsedDuration.String(),
	)

	return stats, errors.Join(stepErrs...)
}

// commentCounts — значения для колонки счётчика входного листа по номерам строк
func commentCounts(entries []layout.Entry, urls []gsheet.InputURL) map[int]any {
	counts := make(map[int]any, len(entries))
	for i, e := range entries {
		row := urls[i].Row
		if e.CommentsErr != nil {
			counts[row] = CountFailed
			continue
		}
		counts[row] = e.Comments.Count()
	}
	return counts
}

// scrapeAll держит браузер открытым ровно на время обхода
func (o *Orchestrator) scrapeAll(ctx context.Context, urls []gsheet.InputURL, stats *RunStats) ([]layout.Entry, error) {
	session, err := o.deps.OpenSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			o.logger.Error("Failed to close browser session", "error", err.Error())
		}
	}()

	articleSource := o.deps.ArticleSource
	if articleSource == nil {
		articleSource = session
	}

	pagOpts := o.opts.Paginator
	pagOpts.CommentSource = session
	paginator := scraper.NewPaginator(articleSource, o.deps.Extractor, pagOpts, o.logger)

	entries := make([]layout.Entry, 0, len(urls))
	for i, u := range urls {
		url := u.URL
		if ctx.Err() != nil {
			o.logger.Warn("Run cancelled, flushing processed URLs",
				"processed", len(entries),
				"total", len(urls),
			)
			stats.StoppedEarly = true
			break
		}

		o.logger.Info("Processing URL",
			"index", i+1,
			"total", len(urls),
			"row", u.Row,
			"url", url,
		)

		entry := o.processURL(ctx, paginator, i+1, url)
		if ctx.Err() != nil {
			// Обрыв посреди ссылки: её результат неполный, в лист не идёт
			o.logger.Warn("Run cancelled while processing URL, dropping it",
				"index", i+1,
				"url", url,
			)
			stats.StoppedEarly = true
			break
		}
		o.count(entry, stats)
		entries = append(entries, entry)
	}

	return entries, nil
}

// processURL никогда не возвращает ошибку: всё, что пошло не так, уходит в Entry
func (o *Orchestrator) processURL(ctx context.Context, p *scraper.Paginator, index int, url string) (entry layout.Entry) {
	entry = layout.Entry{Index: index, URL: url}

	defer func() {
		if r := recover(); r != nil {
			entry.Err = fmt.Errorf("panic: %v", r)
			o.logger.Error("Recovered from panic", "url", url, "panic", fmt.Sprint(r))
		}
	}()

	article, err := p.FetchArticle(ctx, url)
	if err != nil {
		o.logger.Error("Article fetch failed", "index", index, "url", url, "error", err.Error())
		entry.Err = err
	} else {
		article.ID = index
		entry.Article = article
	}

	comments, _, err := p.FetchComments(ctx, url)
	if err != nil {
		o.logger.Error("Comment fetch failed", "index", index, "url", url, "error", err.Error())
		entry.CommentsErr = err
	} else {
		entry.Comments = comments
	}

	return entry
}

func (o *Orchestrator) count(e layout.Entry, stats *RunStats) {
	if e.Err != nil {
		stats.ArticleErrors++
	} else if e.Article != nil {
		stats.Articles++
		if !e.Article.StopReason.Natural() {
			stats.PageCapHits++
		}
	}
	if e.CommentsErr != nil {
		stats.CommentErrors++
	}
}

func (o *Orchestrator) archive(ctx context.Context, sheetName string, entries []layout.Entry, stats *RunStats) {
	if o.deps.Archive == nil {
		return
	}

	for _, e := range entries {
		if e.Err != nil || e.Article == nil {
			continue
		}

		a := e.Article
		record := &storage.ArchivedArticle{
			RunID:        o.opts.RunID,
			SheetName:    sheetName,
			URL:          a.URL,
			Title:        a.Title,
			PublishedAt:  a.PublishedAt,
			Body:         strings.Join(a.BodyPages, "\n"),
			PageCount:    len(a.BodyPages),
			CommentCount: e.Comments.Count(),
			StopReason:   string(a.StopReason),
			CheckSum:     o.checksum.GenerateContentHash(a.URL, a.Title, a.BodyPages, a.PublishedAt),
			ScrapedAt:    o.opts.Now().UTC(),
		}

		// Тот же контент уже в архиве — не перезаписываем
		exists, err := o.deps.Archive.ExistsByChecksum(ctx, record.CheckSum)
		if err != nil {
			o.logger.Error("Archive checksum lookup failed", "url", a.URL, "error", err.Error())
			continue
		}
		if exists {
			stats.Unchanged++
			o.logger.Debug("Article unchanged, skipping archive", "url", a.URL, "checksum", record.CheckSum)
			continue
		}

		isNew, err := o.deps.Archive.UpsertArticle(ctx, record)
		if err != nil {
			o.logger.Error("Archive upsert failed", "url", a.URL, "error", err.Error())
			continue
		}

		stats.Archived++
		o.logger.Debug("Article archived", "url", a.URL, "new", isNew, "checksum", record.CheckSum)
	}
}

package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"yahoo-comments-scraper/internal/observability"
	"yahoo-comments-scraper/internal/storage"
)

const upsertArticleQuery = `
	MERGE INTO TblScrapedArticles AS target
	USING (SELECT @URL AS URL, @SheetName AS SheetName) AS source
	ON target.[URL] = source.URL AND target.[SheetName] = source.SheetName
	WHEN MATCHED THEN
		UPDATE SET
			[RunID] = @RunID,
			[Title] = @Title,
			[PublishedAt] = @PublishedAt,
			[Body] = @Body,
			[PageCount] = @PageCount,
			[CommentCount] = @CommentCount,
			[StopReason] = @StopReason,
			[CheckSum] = @CheckSum,
			[ScrapedAt] = @ScrapedAt
	WHEN NOT MATCHED THEN
		INSERT ([RunID], [SheetName], [URL], [Title], [PublishedAt], [Body], [PageCount], [CommentCount], [StopReason], [CheckSum], [ScrapedAt])
		VALUES (@RunID, @SheetName, @URL, @Title, @PublishedAt, @Body, @PageCount, @CommentCount, @StopReason, @CheckSum, @ScrapedAt)
	OUTPUT $action;
`

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

var _ storage.Repository = (*Repository)(nil)

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger,
	}, nil
}

// UpsertArticle сохраняет или обновляет статью по (URL, SheetName)
func (r *Repository) UpsertArticle(ctx context.Context, a *storage.ArchivedArticle) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	stmt, err := r.db.PrepareContext(ctx, upsertArticleQuery)
	if err != nil {
		return false, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	// MERGE ... OUTPUT $action возвращает INSERT или UPDATE
	var action string
	err = stmt.QueryRowContext(ctx,
		sql.Named("RunID", a.RunID),
		sql.Named("SheetName", a.SheetName),
		sql.Named("URL", a.URL),
		sql.Named("Title", a.Title),
		sql.Named("PublishedAt", a.PublishedAt),
		sql.Named("Body", a.Body),
		sql.Named("PageCount", a.PageCount),
		sql.Named("CommentCount", a.CommentCount),
		sql.Named("StopReason", a.StopReason),
		sql.Named("CheckSum", a.CheckSum),
		sql.Named("ScrapedAt", a.ScrapedAt),
	).Scan(&action)
	if err != nil {
		return false, fmt.Errorf("failed to execute upsert: %w", err)
	}

	return action == "INSERT", nil
}

// ExistsByChecksum проверяет, сохранялся ли уже такой контент
func (r *Repository) ExistsByChecksum(ctx context.Context, checksum string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM TblScrapedArticles WHERE CheckSum = @CheckSum`,
		sql.Named("CheckSum", checksum),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query database: %w", err)
	}

	return count > 0, nil
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

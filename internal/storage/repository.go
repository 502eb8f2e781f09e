package storage

import (
	"context"
	"time"
)

// ArchivedArticle — статья, сохранённая в архив после прогона
type ArchivedArticle struct {
	RunID        string
	SheetName    string // YYMMDD листа, из которого пришла ссылка
	URL          string
	Title        string
	PublishedAt  string
	Body         string // страницы через перевод строки
	PageCount    int
	CommentCount int
	StopReason   string
	CheckSum     string // SHA256 контента
	ScrapedAt    time.Time
}

// Repository интерфейс архива статей
type Repository interface {
	// UpsertArticle сохраняет статью; isNew=false если запись уже была и обновлена
	UpsertArticle(ctx context.Context, article *ArchivedArticle) (isNew bool, err error)

	// ExistsByChecksum — есть ли уже точно такой же контент
	ExistsByChecksum(ctx context.Context, checksum string) (bool, error)

	Close() error
}

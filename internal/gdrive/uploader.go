package gdrive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"google.golang.org/api/drive/v3"

	"yahoo-comments-scraper/internal/credentials"
	"yahoo-comments-scraper/internal/observability"
)

// UploadScope — полный доступ к Drive: папка назначения общая и создана не этим сервисным аккаунтом,
// drive.file её не видит
const UploadScope = drive.DriveScope

// Uploader кладёт выгруженные файлы в общую папку Drive
type Uploader struct {
	svc      *drive.Service
	folderID string
	logger   *observability.Logger
}

func NewUploader(ctx context.Context, creds *credentials.Credentials, folderID string, logger *observability.Logger) (*Uploader, error) {
	svc, err := drive.NewService(ctx, creds.ClientOptions(UploadScope)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return newUploader(svc, folderID, logger), nil
}

func newUploader(svc *drive.Service, folderID string, logger *observability.Logger) *Uploader {
	return &Uploader{
		svc:      svc,
		folderID: folderID,
		logger:   logger,
	}
}

// Upload загружает файл и возвращает его ID в Drive
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	meta := &drive.File{
		Name:    filepath.Base(path),
		Parents: []string{u.folderID},
	}

	created, err := u.svc.Files.Create(meta).
		Media(file).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to drive: %w", path, err)
	}

	u.logger.Info("Uploaded to Drive",
		"file", meta.Name,
		"folder_id", u.folderID,
		"file_id", created.Id,
	)

	return created.Id, nil
}

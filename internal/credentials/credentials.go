package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"google.golang.org/api/option"
)

var ErrNoCredentials = errors.New("no service account credentials")

// ServiceAccount — поля ключа, без которых клиенты Google не поднимутся
type ServiceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// Source — откуда взяли ключ (для логов)
type Source string

const (
	SourceFile Source = "file"
	SourceEnv  Source = "env"
)

type Credentials struct {
	JSON    []byte
	Account ServiceAccount
	Source  Source
}

// Load читает ключ из файла, а если файла нет — из переменной окружения.
// Оба источника должны давать одинаковый JSON сервисного аккаунта.
func Load(filePath, envVar string) (*Credentials, error) {
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			return parse(data, SourceFile)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	}

	if envVar != "" {
		if raw := os.Getenv(envVar); raw != "" {
			return parse([]byte(raw), SourceEnv)
		}
	}

	return nil, fmt.Errorf("%w: file %q not found and %s is not set", ErrNoCredentials, filePath, envVar)
}

func parse(data []byte, src Source) (*Credentials, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON (%s): %w", src, err)
	}
	if sa.Type != "service_account" {
		return nil, fmt.Errorf("credentials (%s): type %q, want service_account", src, sa.Type)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, fmt.Errorf("credentials (%s): client_email and private_key are required", src)
	}

	return &Credentials{JSON: data, Account: sa, Source: src}, nil
}

// ClientOptions — опции для sheets/drive клиентов с нужными скоупами
func (c *Credentials) ClientOptions(scopes ...string) []option.ClientOption {
	return []option.ClientOption{
		option.WithCredentialsJSON(c.JSON),
		option.WithScopes(scopes...),
	}
}

package scraper

import (
	"context"
	"errors"
	"time"
)

// NoCommentsText — текст записи-заглушки для пустой ветки комментариев
const NoCommentsText = "コメントなし"

// ErrContentNotReady — страница загрузилась, но ожидаемый маркер контента не появился за отведённое время
var ErrContentNotReady = errors.New("content marker did not appear in time")

// PageSource отдаёт HTML страницы. waitFor — CSS селектор, появления которого
// нужно дождаться перед чтением (пусто — не ждать)
type PageSource interface {
	Fetch(ctx context.Context, url string, waitFor string) (string, error)
}

type ArticleRecord struct {
	ID          int
	Title       string
	URL         string
	PublishedAt string
	BodyPages   []string
	StopReason  StopReason
}

type CommentRecord struct {
	Text     string
	PostedAt time.Time
	Author   string
}

// Posted возвращает время в формате для таблицы, пусто для заглушки
func (c CommentRecord) Posted() string {
	if c.PostedAt.IsZero() {
		return ""
	}
	return FormatTimestamp(c.PostedAt)
}

// CommentThread — комментарии в порядке обхода страниц.
// Пустая ветка всегда представлена одной записью-заглушкой.
type CommentThread []CommentRecord

func EmptyThread() CommentThread {
	return CommentThread{{Text: NoCommentsText}}
}

func (t CommentThread) IsSentinel() bool {
	return len(t) == 1 && t[0].Text == NoCommentsText && t[0].PostedAt.IsZero() && t[0].Author == ""
}

// Count — реальное число комментариев (заглушка считается как 0)
func (t CommentThread) Count() int {
	if len(t) == 0 || t.IsSentinel() {
		return 0
	}
	return len(t)
}

// StopReason — почему пагинация остановилась
type StopReason string

const (
	StopEmpty    StopReason = "empty"
	StopRepeated StopReason = "repeated"
	StopNotFound StopReason = "not_found"
	StopNotReady StopReason = "not_ready"
	StopPageCap  StopReason = "page_cap"
)

// Natural — false только для страховочного лимита страниц
func (r StopReason) Natural() bool {
	return r != StopPageCap
}

type Selectors struct {
	TitleSelectors      []string `yaml:"title_selectors"`
	TitleSuffix         string   `yaml:"title_suffix"`
	PublishedSelectors  []string `yaml:"published_selectors"`
	BodyContainer       string   `yaml:"body_container"`
	BodyParagraphs      string   `yaml:"body_paragraphs"`
	NotFoundMarker      string   `yaml:"not_found_marker"`
	CommentItem         string   `yaml:"comment_item"`
	CommentText         string   `yaml:"comment_text"`
	CommentAuthor       string   `yaml:"comment_author"`
	CommentTime         string   `yaml:"comment_time"`
	CommentsURLTemplate string   `yaml:"comments_url_template"`
}

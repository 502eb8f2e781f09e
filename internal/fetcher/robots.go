package fetcher

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"yahoo-comments-scraper/internal/observability"
)

type RobotsCache struct {
	cache     map[string]*robotsEntry
	ttl       time.Duration
	userAgent string
	mu        sync.RWMutex
	logger    *observability.Logger
}

type robotsEntry struct {
	group     *robotstxt.Group
	expiresAt time.Time
}

func NewRobotsCache(ttl time.Duration, userAgent string, logger *observability.Logger) *RobotsCache {
	return &RobotsCache{
		cache:     make(map[string]*robotsEntry),
		ttl:       ttl,
		userAgent: userAgent,
		logger:    logger,
	}
}

// IsAllowed проверяет путь по robots.txt хоста. Если robots.txt недоступен — разрешаем.
func (rc *RobotsCache) IsAllowed(ctx context.Context, u *url.URL, client *http.Client) bool {
	host := u.Scheme + "://" + u.Host

	rc.mu.RLock()
	cached, exists := rc.cache[host]
	rc.mu.RUnlock()

	if !exists || time.Now().After(cached.expiresAt) {
		cached = &robotsEntry{
			group:     rc.load(ctx, host, client),
			expiresAt: time.Now().Add(rc.ttl),
		}
		rc.mu.Lock()
		rc.cache[host] = cached
		rc.mu.Unlock()
	}

	if cached.group == nil {
		return true
	}
	return cached.group.Test(u.EscapedPath())
}

func (rc *RobotsCache) load(ctx context.Context, host string, client *http.Client) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		rc.logger.Warn("robots.txt fetch failed, assuming allowed", "host", host, "error", err.Error())
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		rc.logger.Warn("robots.txt parse failed, assuming allowed", "host", host, "error", err.Error())
		return nil
	}

	return data.FindGroup(rc.userAgent)
}

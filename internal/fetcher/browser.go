package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"yahoo-comments-scraper/internal/config"
	"yahoo-comments-scraper/internal/observability"
	"yahoo-comments-scraper/internal/scraper"
)

// BrowserSession — один Chrome и одна вкладка на весь прогон.
// Обязательно закрывать через Close на любом пути выхода.
type BrowserSession struct {
	launcher    *launcher.Launcher
	browser     *rod.Browser
	page        *rod.Page
	pageTimeout time.Duration
	waitTimeout time.Duration
	logger      *observability.Logger
}

func OpenBrowser(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*BrowserSession, error) {
	l := launcher.New().
		Headless(cfg.Rod.Headless).
		NoSandbox(true).
		Set("disable-gpu").
		Set("lang", cfg.Rod.Lang)
	if cfg.Rod.ChromePath != "" {
		l = l.Bin(cfg.Rod.ChromePath)
	}

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s := &BrowserSession{
		launcher:    l,
		pageTimeout: cfg.GetRodPageTimeout(),
		waitTimeout: cfg.GetCommentWaitTimeout(),
		logger:      logger,
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	s.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	s.page = page

	logger.Info("Browser session opened", "headless", cfg.Rod.Headless)

	return s, nil
}

// Fetch открывает url и возвращает HTML. Если задан waitFor, ждём появления
// элемента не дольше waitTimeout; не дождались — scraper.ErrContentNotReady.
func (s *BrowserSession) Fetch(ctx context.Context, url string, waitFor string) (string, error) {
	page := s.page.Context(ctx).Timeout(s.pageTimeout)
	defer page.CancelTimeout()

	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", url, err)
	}

	if waitFor != "" {
		waitPage := s.page.Context(ctx).Timeout(s.waitTimeout)
		_, err := waitPage.Element(waitFor)
		waitPage.CancelTimeout()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				s.logger.Debug("Content marker not found in time", "url", url, "selector", waitFor)
				return "", fmt.Errorf("%s: %w", url, scraper.ErrContentNotReady)
			}
			return "", fmt.Errorf("wait for %q on %s: %w", waitFor, url, err)
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read HTML of %s: %w", url, err)
	}

	return html, nil
}

func (s *BrowserSession) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}

	s.logger.Info("Browser session closed")

	return errors.Join(errs...)
}

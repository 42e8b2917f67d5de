package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/JustJay7/hc-case-tracker/internal/config"
	"github.com/JustJay7/hc-case-tracker/pkg/logger"
)

// Manager owns browser process lifecycle. Each Acquire launches a fresh
// browser with a single page; sessions are never pooled or shared, since
// the court site scopes its verification state to one page load.
type Manager struct {
	cfg *config.Config
	log *logger.Logger
}

func NewManager(cfg *config.Config, log *logger.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// Session is one exclusively-owned browser session
type Session struct {
	Page *rod.Page // exported for the field locator

	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
	log      *logger.Logger
	closed   sync.Once
}

// Acquire launches a headless browser configured to suppress automation
// fingerprints and returns a session holding one open page
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	l := launcher.New().
		Headless(m.cfg.HeadlessMode).
		NoSandbox(true).
		Set("user-agent", m.cfg.UserAgent).
		Set("disable-blink-features", "AutomationControlled").
		Delete("enable-automation").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("disable-extensions").
		Set("no-first-run").
		Set("window-size", "1920,1080")

	if m.cfg.BrowserPath != "" {
		l = l.Bin(m.cfg.BrowserPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	// Remove the webdriver property and friends before any site script runs
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		m.log.Warn("stealth injection failed, proceeding without it", "error", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		m.log.Warn("failed to set viewport", "error", err)
	}

	if _, err := page.SetExtraHeaders([]string{"Accept-Language", "en-US,en;q=0.9"}); err != nil {
		m.log.Warn("failed to set extra headers", "error", err)
	}

	m.log.Info("browser session acquired", "headless", m.cfg.HeadlessMode)

	return &Session{
		Page:     page,
		browser:  b,
		launcher: l,
		timeout:  m.cfg.ScraperTimeout,
		log:      m.log,
	}, nil
}

// Release tears the session down. It is idempotent, must be called on
// every exit path, and never propagates cleanup failures.
func (m *Manager) Release(s *Session) {
	if s == nil {
		return
	}
	s.closed.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				m.log.Warn("browser cleanup panicked", "reason", r)
			}
		}()

		if s.Page != nil {
			if err := s.Page.Close(); err != nil {
				m.log.Warn("failed to close page", "error", err)
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				m.log.Warn("failed to close browser", "error", err)
			}
		}
		if s.launcher != nil {
			s.launcher.Kill()
		}
		m.log.Info("browser session released")
	})
}

// Navigate loads the URL under the session's page-load timeout. A load
// wait that times out is logged and tolerated, since the page is often
// usable while still fetching stragglers.
func (s *Session) Navigate(url string) error {
	page := s.Page.Timeout(s.timeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := s.Page.Timeout(10 * time.Second).WaitLoad(); err != nil {
		s.log.Warn("page load wait timed out", "url", url, "error", err)
	}
	return nil
}

// HTML returns the current page source
func (s *Session) HTML() (string, error) {
	return s.Page.HTML()
}

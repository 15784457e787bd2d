package collector

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// PageLoader returns the HTML of a page.
type PageLoader interface {
	Load(ctx context.Context, pageURL string) ([]byte, error)
	Close() error
}

// HTTPLoader fetches pages with a single GET and no script execution.
type HTTPLoader struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPLoader creates a loader with optional proxy support.
func NewHTTPLoader(proxyURL string) *HTTPLoader {
	return &HTTPLoader{
		Client:    newHTTPClient(proxyURL),
		UserAgent: "Mozilla/5.0 (compatible; LottoSentinel/1.0)",
	}
}

func (l *HTTPLoader) Load(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", l.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}
	defer resp.Body.Close()

	// Cap read to 10MB.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("load page: status %d", resp.StatusCode)
	}
	return body, nil
}

func (l *HTTPLoader) Close() error { return nil }

// BrowserLoader renders pages in headless Chrome so script-built tables are
// present in the returned HTML. The browser is started on first use and
// reused until Close.
type BrowserLoader struct {
	// RemoteURL is the DevTools WebSocket of an external Chrome.
	// Empty launches a local headless instance.
	RemoteURL string
	Timeout   time.Duration
	Logger    *log.Logger

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// NewBrowserLoader creates a loader backed by go-rod.
func NewBrowserLoader(remoteURL string, logger *log.Logger) *BrowserLoader {
	if logger == nil {
		logger = log.Default()
	}
	return &BrowserLoader{RemoteURL: remoteURL, Timeout: 30 * time.Second, Logger: logger}
}

func (l *BrowserLoader) Load(ctx context.Context, pageURL string) ([]byte, error) {
	b, err := l.connect()
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(b)
	if err != nil {
		l.reset()
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	p := page.Context(navCtx)
	if err := p.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		l.Logger.Printf("[WARN] browser: wait load %s: %v", pageURL, err)
	}
	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("browser: get DOM: %w", err)
	}
	return []byte(html), nil
}

func (l *BrowserLoader) connect() (*rod.Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.browser != nil {
		return l.browser, nil
	}

	wsURL := l.RemoteURL
	var lnch *launcher.Launcher
	if wsURL == "" {
		lnch = launcher.New().Headless(true).Set("disable-blink-features", "AutomationControlled")
		u, err := lnch.Launch()
		if err != nil {
			lnch.Cleanup()
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		l.Logger.Printf("[INFO] browser: launched local chrome")
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	l.browser = b
	l.lnch = lnch
	return b, nil
}

// reset drops the current browser so the next Load reconnects.
func (l *BrowserLoader) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cleanupLocked()
}

func (l *BrowserLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cleanupLocked()
	return nil
}

func (l *BrowserLoader) cleanupLocked() {
	if l.browser != nil {
		l.browser.Close()
		l.browser = nil
	}
	if l.lnch != nil {
		l.lnch.Cleanup()
		l.lnch = nil
	}
}

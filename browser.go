package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pw "github.com/playwright-community/playwright-go"
)

const disableAutomationFlag = "--disable-blink-features=AutomationControlled"

// hardenedFlags let Chromium start in containers without a usable sandbox or /dev/shm.
var hardenedFlags = []string{
	"--no-sandbox",
	"--disable-dev-shm-usage",
}

// Session is one controlled browser context. Close must be called exactly
// once on every path after a successful Open.
type Session interface {
	// Navigate loads url, waits for the load event, pauses and returns the rendered HTML.
	Navigate(ctx context.Context, url string, timeout time.Duration) (string, error)
	// PostForm submits a urlencoded form with the session's cookies.
	PostForm(ctx context.Context, url string, form map[string]string, timeout time.Duration) (int, []byte, error)
	Close() error
}

// Launcher opens browser sessions.
type Launcher interface {
	Open(ctx context.Context) (Session, error)
}

// BrowserConfig configures every session a PlaywrightLauncher opens.
type BrowserConfig struct {
	Headless    bool
	Hardened    bool
	Proxy       string     // normalized proxy URL, empty for direct
	Proxies     *ProxyPool // used when Proxy is empty; one pick per session
	UserAgent   string
	LaunchFlags []string
	Delayer     Delayer
}

// launchArgs returns the Chromium command line for cfg, automation flag first.
func (cfg BrowserConfig) launchArgs() []string {
	args := []string{disableAutomationFlag}
	if cfg.Hardened {
		args = append(args, hardenedFlags...)
	}
	for _, flag := range cfg.LaunchFlags {
		if flag == disableAutomationFlag {
			continue
		}
		args = append(args, flag)
	}
	return args
}

// InstallBrowser downloads the playwright driver and Chromium if missing.
func InstallBrowser() error {
	return pw.Install(&pw.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
	})
}

// PlaywrightLauncher starts a fresh playwright driver and Chromium per session.
type PlaywrightLauncher struct {
	cfg BrowserConfig
}

func NewPlaywrightLauncher(cfg BrowserConfig) *PlaywrightLauncher {
	if cfg.Delayer == nil {
		cfg.Delayer = NoDelay{}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultProfile.UserAgent
	}
	return &PlaywrightLauncher{cfg: cfg}
}

func (l *PlaywrightLauncher) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runtime, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	opts := pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(l.cfg.Headless),
		Args:     l.cfg.launchArgs(),
	}
	proxyURL := l.cfg.Proxy
	if proxyURL == "" {
		proxyURL, _ = l.cfg.Proxies.Pick()
	}
	if proxyURL != "" {
		server, user, pass, err := proxyCredentials(proxyURL)
		if err != nil {
			runtime.Stop()
			return nil, err
		}
		proxy := &pw.Proxy{Server: server}
		if user != "" {
			proxy.Username = pw.String(user)
			proxy.Password = pw.String(pass)
		}
		opts.Proxy = proxy
	}

	browser, err := runtime.Chromium.Launch(opts)
	if err != nil {
		runtime.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(pw.BrowserNewContextOptions{
		UserAgent: pw.String(l.cfg.UserAgent),
		Locale:    pw.String("en-US"),
	})
	if err != nil {
		browser.Close()
		runtime.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		browser.Close()
		runtime.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &playwrightSession{
		runtime: runtime,
		browser: browser,
		page:    page,
		delayer: l.cfg.Delayer,
	}, nil
}

type playwrightSession struct {
	runtime *pw.Playwright
	browser pw.Browser
	page    pw.Page
	delayer Delayer

	closeOnce sync.Once
	closeErr  error
}

// effectiveTimeout shortens timeout to the context deadline, in playwright's milliseconds.
func effectiveTimeout(ctx context.Context, timeout time.Duration) float64 {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout || timeout <= 0 {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return float64(timeout.Milliseconds())
}

func (s *playwrightSession) Navigate(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, err := s.page.Goto(url, pw.PageGotoOptions{
		Timeout:   pw.Float(effectiveTimeout(ctx, timeout)),
		WaitUntil: pw.WaitUntilStateLoad,
	})
	if err != nil {
		if errors.Is(err, pw.ErrTimeout) || isTimeout(err) {
			return "", fmt.Errorf("%w: %s after %v", ErrNavigationTimeout, url, timeout)
		}
		return "", fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	if err := s.delayer.Delay(ctx); err != nil {
		return "", err
	}

	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, nil
}

func (s *playwrightSession) PostForm(ctx context.Context, url string, form map[string]string, timeout time.Duration) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	fields := make(map[string]interface{}, len(form))
	for k, v := range form {
		fields[k] = v
	}

	resp, err := s.page.Request().Post(url, pw.APIRequestContextPostOptions{
		Form:    fields,
		Timeout: pw.Float(effectiveTimeout(ctx, timeout)),
	})
	if err != nil {
		return 0, nil, fmt.Errorf("POST %s failed: %w", url, err)
	}
	defer resp.Dispose()

	body, err := resp.Body()
	if err != nil {
		return resp.Status(), nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.Status(), body, nil
}

func (s *playwrightSession) Close() error {
	s.closeOnce.Do(func() {
		browserErr := s.browser.Close()
		stopErr := s.runtime.Stop()
		s.closeErr = errors.Join(browserErr, stopErr)
	})
	return s.closeErr
}

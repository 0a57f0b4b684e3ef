package main

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	http "github.com/bogdanfinn/fhttp"
)

const (
	resolverJina = "jina"
	resolverSite = "site"
)

// StyleReference is the canonical generation-page URL of a style.
type StyleReference struct {
	URL string
}

// Resolver maps a style name to its generation page.
type Resolver interface {
	// Name is used in log lines, e.g. "Searching for style 'neon' via Jina...".
	Name() string
	// NeedsSession reports whether Resolve navigates the browser session.
	NeedsSession() bool
	Resolve(ctx context.Context, sess Session, style string) (StyleReference, error)
}

// styleURLPattern matches absolute style-page URLs under siteBase.
func styleURLPattern(siteBase string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(strings.TrimRight(siteBase, "/")) + `/[^"'\s()<>\[\]]+\.html`)
}

func searchURL(siteBase, style string) string {
	return strings.TrimRight(siteBase, "/") + "/index/search?q=" + url.QueryEscape(style)
}

// =============================================================================
// Jina Reader
// =============================================================================

// JinaResolver fetches the site's search page through the r.jina.ai text
// renderer, so the search costs no browser navigation.
type JinaResolver struct {
	client   httpDoer
	logger   Logger
	jinaBase string
	siteBase string
	apiKey   string
	timeout  time.Duration
	pattern  *regexp.Regexp
}

func NewJinaResolver(client httpDoer, logger Logger, jinaBase, siteBase, apiKey string, timeout time.Duration) *JinaResolver {
	if !strings.HasSuffix(jinaBase, "/") {
		jinaBase += "/"
	}
	return &JinaResolver{
		client:   client,
		logger:   logger,
		jinaBase: jinaBase,
		siteBase: siteBase,
		apiKey:   apiKey,
		timeout:  timeout,
		pattern:  styleURLPattern(siteBase),
	}
}

func (r *JinaResolver) Name() string       { return "Jina" }
func (r *JinaResolver) NeedsSession() bool { return false }

func (r *JinaResolver) Resolve(ctx context.Context, _ Session, style string) (StyleReference, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	text, err := r.fetch(ctx, r.jinaBase+searchURL(r.siteBase, style))
	if err != nil {
		return StyleReference{}, &SearchUnavailableError{Via: r.Name(), Err: err}
	}

	match := r.pattern.FindString(text)
	if match == "" {
		return StyleReference{}, &StyleNotFoundError{Style: style, Via: r.Name()}
	}
	return StyleReference{URL: match}, nil
}

func (r *JinaResolver) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}

	req.Header = http.Header{
		"user-agent":      {DefaultProfile.UserAgent},
		"accept":          {"text/plain, */*"},
		"accept-encoding": {"gzip, deflate, br"},
		"accept-language": {"en-US,en;q=0.9"},
		"x-return-format": {"markdown"},
		http.HeaderOrderKey: {
			"user-agent",
			"accept",
			"accept-encoding",
			"accept-language",
			"authorization",
			"x-return-format",
		},
		http.PHeaderOrderKey: PseudoHeaderOrder,
	}
	if r.apiKey != "" {
		req.Header.Set("authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if r.logger != nil {
			r.logger.Log("GET %s -> error: %v", req.URL.Path, err)
		}
		if isTimeout(err) || ctx.Err() != nil {
			return "", fmt.Errorf("timed out after %v: %w", r.timeout, err)
		}
		return "", err
	}
	defer resp.Body.Close()
	if r.logger != nil {
		r.logger.Log("GET %s -> %d", req.URL.Path, resp.StatusCode)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, preview(body))
	}
	return string(body), nil
}

// =============================================================================
// In-browser Site Search
// =============================================================================

// SiteSearchResolver searches with the browser session itself. It costs one
// extra navigation and one extra anti-bot checkpoint.
type SiteSearchResolver struct {
	detector *Detector
	siteBase string
	timeout  time.Duration
	pattern  *regexp.Regexp
}

func NewSiteSearchResolver(detector *Detector, siteBase string, timeout time.Duration) *SiteSearchResolver {
	return &SiteSearchResolver{
		detector: detector,
		siteBase: strings.TrimRight(siteBase, "/"),
		timeout:  timeout,
		pattern:  styleURLPattern(siteBase),
	}
}

func (r *SiteSearchResolver) Name() string       { return "site search" }
func (r *SiteSearchResolver) NeedsSession() bool { return true }

func (r *SiteSearchResolver) Resolve(ctx context.Context, sess Session, style string) (StyleReference, error) {
	html, err := sess.Navigate(ctx, searchURL(r.siteBase, style), r.timeout)
	if err != nil {
		return StyleReference{}, err
	}
	if err := r.detector.Check(html, "search page"); err != nil {
		return StyleReference{}, err
	}

	if match := r.matchLinks(html); match != "" {
		return StyleReference{URL: match}, nil
	}
	if match := r.pattern.FindString(html); match != "" {
		return StyleReference{URL: match}, nil
	}
	return StyleReference{}, &StyleNotFoundError{Style: style, Via: r.Name()}
}

// matchLinks returns the first anchor whose resolved href is a style page.
func (r *SiteSearchResolver) matchLinks(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	base, err := url.Parse(r.siteBase + "/")
	if err != nil {
		return ""
	}

	var match string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref).String()
		if loc := r.pattern.FindStringIndex(abs); loc != nil && loc[0] == 0 && loc[1] == len(abs) {
			match = abs
			return false
		}
		return true
	})
	return match
}

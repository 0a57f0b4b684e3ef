package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
)

// fakeSession serves canned HTML per URL and a canned POST response.
type fakeSession struct {
	mu      sync.Mutex
	pages   map[string]string
	navErr  error
	status  int
	body    string
	postErr error

	visited []string
	posts   []map[string]string
	postURL string
	closes  int
}

func (s *fakeSession) Navigate(_ context.Context, url string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited = append(s.visited, url)
	if s.navErr != nil {
		return "", s.navErr
	}
	html, ok := s.pages[url]
	if !ok {
		return "<html><body>404</body></html>", nil
	}
	return html, nil
}

func (s *fakeSession) PostForm(_ context.Context, url string, form map[string]string, _ time.Duration) (int, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postURL = url
	s.posts = append(s.posts, form)
	if s.postErr != nil {
		return 0, nil, s.postErr
	}
	return s.status, []byte(s.body), nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// fakeLauncher hands out one session and counts opens.
type fakeLauncher struct {
	session *fakeSession
	err     error
	opens   int
}

func (l *fakeLauncher) Open(context.Context) (Session, error) {
	l.opens++
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

// fakeDoer answers every request with a fixed status and body.
type fakeDoer struct {
	status   int
	body     string
	err      error
	requests []*http.Request
}

func (d *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	d.requests = append(d.requests, req)
	if d.err != nil {
		return nil, d.err
	}
	return &http.Response{
		StatusCode: d.status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(d.body)),
		Request:    req,
	}, nil
}

// staticResolver returns a fixed reference without touching the network.
type staticResolver struct {
	ref   StyleReference
	err   error
	calls int
}

func (r *staticResolver) Name() string       { return "Jina" }
func (r *staticResolver) NeedsSession() bool { return false }

func (r *staticResolver) Resolve(context.Context, Session, string) (StyleReference, error) {
	r.calls++
	return r.ref, r.err
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var errConnReset = errors.New("read tcp: connection reset by peer")

const styleURL = "https://en.ephoto360.com/neon-text-effect-71.html"

func stylePage(token, buildServer, buildServerID string) string {
	var b strings.Builder
	b.WriteString(`<html><body><form method="post">`)
	b.WriteString(`<input type="text" name="text[]">`)
	if token != "" {
		b.WriteString(`<input type="hidden" name="token" value="` + token + `">`)
	}
	if buildServer != "" {
		b.WriteString(`<input type="hidden" name="build_server" value="` + buildServer + `">`)
	}
	if buildServerID != "" {
		b.WriteString(`<input type="hidden" name="build_server_id" value="` + buildServerID + `">`)
	}
	b.WriteString(`</form></body></html>`)
	return b.String()
}

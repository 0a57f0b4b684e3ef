package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jinaSearchText = `Title: Search results

URL Source: https://en.ephoto360.com/index/search?q=neon

Markdown Content:
[![Image 1](https://en.ephoto360.com/uploads/neon.jpg)](https://en.ephoto360.com/create-neon-light-text-effect-online-71.html)
[Neon glitch](https://en.ephoto360.com/neon-glitch-text-effect-592.html)
`

func TestJinaResolver_FirstMatch(t *testing.T) {
	doer := &fakeDoer{status: 200, body: jinaSearchText}
	r := NewJinaResolver(doer, nil, "https://r.jina.ai", defaultSiteBase, "", time.Second)

	ref, err := r.Resolve(context.Background(), nil, "neon")

	require.NoError(t, err)
	assert.Equal(t, "https://en.ephoto360.com/create-neon-light-text-effect-online-71.html", ref.URL)

	require.Len(t, doer.requests, 1)
	assert.Equal(t, "https://r.jina.ai/https://en.ephoto360.com/index/search?q=neon", doer.requests[0].URL.String())
	assert.Empty(t, doer.requests[0].Header.Get("authorization"))
}

func TestJinaResolver_EscapesQueryAndSendsKey(t *testing.T) {
	doer := &fakeDoer{status: 200, body: jinaSearchText}
	r := NewJinaResolver(doer, nil, defaultJinaBase, defaultSiteBase, "secret", 0)

	_, err := r.Resolve(context.Background(), nil, "3d gold")

	require.NoError(t, err)
	assert.Equal(t, "https://r.jina.ai/https://en.ephoto360.com/index/search?q=3d+gold", doer.requests[0].URL.String())
	assert.Equal(t, "Bearer secret", doer.requests[0].Header.Get("authorization"))
}

func TestJinaResolver_NotFound(t *testing.T) {
	doer := &fakeDoer{status: 200, body: "Title: Search\n\nhttps://example.com/other.html"}
	r := NewJinaResolver(doer, nil, defaultJinaBase, defaultSiteBase, "", 0)

	_, err := r.Resolve(context.Background(), nil, "X")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStyleNotFound))
	assert.Equal(t, "Style 'X' not found via Jina", FailureMessage(err))
}

func TestJinaResolver_Unavailable(t *testing.T) {
	cases := map[string]*fakeDoer{
		"transport": {err: errConnReset},
		"timeout":   {err: timeoutError{}},
		"status":    {status: 503, body: "rate limited"},
	}
	for name, doer := range cases {
		t.Run(name, func(t *testing.T) {
			r := NewJinaResolver(doer, nil, defaultJinaBase, defaultSiteBase, "", 15*time.Second)

			_, err := r.Resolve(context.Background(), nil, "neon")

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSearchUnavailable))
			assert.False(t, errors.Is(err, ErrStyleNotFound))
			assert.Contains(t, FailureMessage(err), "Jina search failed")
		})
	}
}

func TestStyleURLPattern(t *testing.T) {
	p := styleURLPattern("https://en.ephoto360.com/")

	assert.Equal(t, "https://en.ephoto360.com/a-b-1.html", p.FindString(`href="https://en.ephoto360.com/a-b-1.html"`))
	assert.Equal(t, "https://en.ephoto360.com/x/y-2.html", p.FindString("(https://en.ephoto360.com/x/y-2.html) and https://en.ephoto360.com/z.html"))
	assert.Empty(t, p.FindString("https://en.ephoto360.com/index/search?q=neon"))
	assert.Empty(t, p.FindString("https://enXephoto360.com/a.html"), "dots are literal")
	assert.Empty(t, p.FindString("https://en.ephoto360.com/a b.html"), "no whitespace inside a url")
}

func TestSiteSearchResolver_ScansLinks(t *testing.T) {
	search := searchURL(defaultSiteBase, "neon")
	sess := &fakeSession{pages: map[string]string{
		search: `<html><body>
			<a href="/index/search?q=neon&page=2">next</a>
			<a href="https://cdn.example/neon.html">cdn</a>
			<a href=" neon-text-effect-71.html ">Neon</a>
		</body></html>`,
	}}
	r := NewSiteSearchResolver(NewDetector(nil), defaultSiteBase+"/", time.Second)

	ref, err := r.Resolve(context.Background(), sess, "neon")

	require.NoError(t, err)
	assert.Equal(t, styleURL, ref.URL)
	assert.Equal(t, []string{search}, sess.visited)
}

func TestSiteSearchResolver_FallsBackToText(t *testing.T) {
	search := searchURL(defaultSiteBase, "neon")
	sess := &fakeSession{pages: map[string]string{
		search: `<script>var first = "https://en.ephoto360.com/neon-text-effect-71.html";</script>`,
	}}
	r := NewSiteSearchResolver(NewDetector(nil), defaultSiteBase, 0)

	ref, err := r.Resolve(context.Background(), sess, "neon")

	require.NoError(t, err)
	assert.Equal(t, styleURL, ref.URL)
}

func TestSiteSearchResolver_Errors(t *testing.T) {
	search := searchURL(defaultSiteBase, "neon")

	t.Run("blocked", func(t *testing.T) {
		sess := &fakeSession{pages: map[string]string{search: "<h1>Pardon Our Interruption</h1>"}}
		_, err := NewSiteSearchResolver(NewDetector(nil), defaultSiteBase, 0).Resolve(context.Background(), sess, "neon")
		assert.True(t, errors.Is(err, ErrBlocked))
		assert.Equal(t, "Blocked by Incapsula on search page", FailureMessage(err))
	})

	t.Run("not found", func(t *testing.T) {
		sess := &fakeSession{pages: map[string]string{search: "<p>No results</p>"}}
		_, err := NewSiteSearchResolver(NewDetector(nil), defaultSiteBase, 0).Resolve(context.Background(), sess, "neon")
		assert.Equal(t, "Style 'neon' not found via site search", FailureMessage(err))
	})

	t.Run("navigation", func(t *testing.T) {
		sess := &fakeSession{navErr: ErrNavigationTimeout}
		_, err := NewSiteSearchResolver(NewDetector(nil), defaultSiteBase, 0).Resolve(context.Background(), sess, "neon")
		assert.True(t, errors.Is(err, ErrNavigationTimeout))
	})
}

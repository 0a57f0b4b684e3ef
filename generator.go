package main

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// GenerationResult is either a success with an image URL or a failure with
// an error. Both variants carry the stage log.
type GenerationResult struct {
	imageURL string
	err      error
	log      []string
}

func succeeded(imageURL string, log []string) GenerationResult {
	return GenerationResult{imageURL: imageURL, log: log}
}

func failed(err error, log []string) GenerationResult {
	return GenerationResult{err: err, log: log}
}

func (r GenerationResult) OK() bool         { return r.err == nil }
func (r GenerationResult) ImageURL() string { return r.imageURL }
func (r GenerationResult) Err() error       { return r.err }
func (r GenerationResult) Log() []string    { return append([]string(nil), r.log...) }

// Reason is the terminal error message, empty on success.
func (r GenerationResult) Reason() string {
	return FailureMessage(r.err)
}

func (r GenerationResult) LogText() string {
	return strings.Join(r.log, "\n")
}

// GeneratorDeps wires a Generator.
type GeneratorDeps struct {
	Launcher          Launcher
	Resolver          Resolver
	Detector          *Detector
	Submitter         *Submitter
	Logger            Logger
	NavigationTimeout time.Duration
	RequestTimeout    time.Duration
}

// Generator runs the resolve, navigate, extract and submit pipeline. It holds
// no per-request state and is safe for concurrent use; each call owns its own
// browser session.
type Generator struct {
	launcher   Launcher
	resolver   Resolver
	detector   *Detector
	submitter  *Submitter
	logger     Logger
	navTimeout time.Duration
	reqTimeout time.Duration
}

func NewGenerator(deps GeneratorDeps) *Generator {
	if deps.Detector == nil {
		deps.Detector = NewDetector(nil)
	}
	if deps.Logger == nil {
		deps.Logger = nopLogger{}
	}
	return &Generator{
		launcher:   deps.Launcher,
		resolver:   deps.Resolver,
		detector:   deps.Detector,
		submitter:  deps.Submitter,
		logger:     deps.Logger,
		navTimeout: deps.NavigationTimeout,
		reqTimeout: deps.RequestTimeout,
	}
}

// GenerateLogo returns the image URL (empty on failure) and the log text.
func (g *Generator) GenerateLogo(ctx context.Context, text, style string) (string, string) {
	res := g.Generate(ctx, text, style)
	return res.ImageURL(), res.LogText()
}

// Generate runs one attempt. It never panics and never retries.
func (g *Generator) Generate(ctx context.Context, text, style string) (res GenerationResult) {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(style) == "" {
		return failed(ErrInputMissing, []string{ErrInputMissing.Error()})
	}

	logger := &requestLogger{id: generateRequestID(), base: g.logger}
	trace := newTrace(logger)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("unexpected panic: %v", r)
			trace.Add("%s", FailureMessage(err))
			res = failed(err, trace.Lines())
		}
	}()

	if g.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.reqTimeout)
		defer cancel()
	}

	imageURL, err := g.run(ctx, text, style, trace, logger)
	if err != nil {
		trace.Add("%s", FailureMessage(err))
		return failed(err, trace.Lines())
	}
	return succeeded(imageURL, trace.Lines())
}

func (g *Generator) run(ctx context.Context, text, style string, trace *Trace, logger Logger) (string, error) {
	var ref StyleReference
	var err error

	searching := func() {
		trace.Add("Searching for style '%s' via %s...", style, g.resolver.Name())
	}

	if !g.resolver.NeedsSession() {
		searching()
		if ref, err = g.resolver.Resolve(ctx, nil, style); err != nil {
			return "", err
		}
		trace.Add("Found style URL: %s", ref.URL)
	}

	trace.Add("Launching browser...")
	sess, err := g.launcher.Open(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			logger.Log("Browser close warning: %v", closeErr)
		}
	}()

	if g.resolver.NeedsSession() {
		searching()
		if ref, err = g.resolver.Resolve(ctx, sess, style); err != nil {
			return "", err
		}
		trace.Add("Found style URL: %s", ref.URL)
	}

	trace.Add("Opening style page...")
	html, err := sess.Navigate(ctx, ref.URL, g.navTimeout)
	if err != nil {
		return "", err
	}
	if err := g.detector.Check(html, "style page"); err != nil {
		return "", err
	}

	tokens, err := ExtractTokens(html)
	if err != nil {
		return "", err
	}
	trace.Add("Tokens extracted successfully")

	trace.Add("Submitting generation request...")
	imageURL, err := g.submitter.Submit(ctx, sess, GenerationRequest{Text: text, Tokens: tokens})
	if err != nil {
		return "", err
	}
	trace.Add("Image generated successfully")

	return imageURL, nil
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Marker is a substring that identifies an anti-bot interstitial.
type Marker struct {
	Vendor  string
	Pattern string
	Fold    bool // case-insensitive match
}

func (m Marker) matches(html, lowered string) bool {
	if m.Fold {
		return strings.Contains(lowered, strings.ToLower(m.Pattern))
	}
	return strings.Contains(html, m.Pattern)
}

// DefaultMarkers covers the Cloudflare challenge page plus the Incapsula and
// DataDome interstitials.
var DefaultMarkers = []Marker{
	{Vendor: "Cloudflare", Pattern: "Just a moment"},
	{Vendor: "Cloudflare", Pattern: "cf-browser-verification"},
	{Vendor: "Cloudflare", Pattern: "cloudflare", Fold: true},
	{Vendor: "Incapsula", Pattern: "Pardon Our Interruption"},
	{Vendor: "Incapsula", Pattern: "Incapsula_Resource"},
	{Vendor: "DataDome", Pattern: "ct.captcha-delivery.com/i.js"},
}

// Detector classifies rendered HTML as content or interstitial.
// It is a heuristic: a page it passes may still be a block, so later stages
// have to fail cleanly on unexpected HTML.
type Detector struct {
	markers []Marker
}

// NewDetector returns a Detector over markers, or DefaultMarkers if none are given.
func NewDetector(markers []Marker) *Detector {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	return &Detector{markers: markers}
}

// Detect returns the first marker found in html.
func (d *Detector) Detect(html string) (Marker, bool) {
	lowered := strings.ToLower(html)
	for _, m := range d.markers {
		if m.matches(html, lowered) {
			return m, true
		}
	}
	return Marker{}, false
}

func (d *Detector) IsBlocked(html string) bool {
	_, blocked := d.Detect(html)
	return blocked
}

// Check returns a BlockedError for stage if html is an interstitial.
func (d *Detector) Check(html, stage string) error {
	if m, blocked := d.Detect(html); blocked {
		return &BlockedError{Vendor: m.Vendor, Stage: stage}
	}
	return nil
}

// parseMarkerLine parses "vendor|flags|pattern". flags may be empty or "i".
// The pattern is everything after the second separator, so it may contain '|'.
func parseMarkerLine(line string) (Marker, bool) {
	parts := strings.SplitN(line, "|", 3)
	if len(parts) != 3 {
		return Marker{}, false
	}
	vendor := strings.TrimSpace(parts[0])
	flags := strings.TrimSpace(parts[1])
	pattern := parts[2]
	if vendor == "" || pattern == "" {
		return Marker{}, false
	}
	if flags != "" && flags != "i" {
		return Marker{}, false
	}
	return Marker{Vendor: vendor, Pattern: pattern, Fold: flags == "i"}, true
}

// LoadMarkers reads a marker file, one "vendor|flags|pattern" per line.
// Blank lines and # comments are skipped.
func LoadMarkers(filename string) ([]Marker, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open marker file: %w", err)
	}
	defer file.Close()

	var markers []Marker
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		m, ok := parseMarkerLine(line)
		if !ok {
			return nil, fmt.Errorf("%s:%d: malformed marker %q", filename, lineNum, line)
		}
		markers = append(markers, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading marker file: %w", err)
	}
	if len(markers) == 0 {
		return nil, fmt.Errorf("no markers found in %s", filename)
	}
	return markers, nil
}

package main

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Hidden form field names on a style page.
const (
	fieldToken         = "token"
	fieldBuildServer   = "build_server"
	fieldBuildServerID = "build_server_id"
)

// SessionTokens authorize one generation job against a style page's backend.
// The values are only meaningful together.
type SessionTokens struct {
	Token         string
	BuildServer   string
	BuildServerID string
}

// ExtractTokens reads the three hidden inputs from a rendered style page.
// All three must be present and non-empty.
func ExtractTokens(html string) (SessionTokens, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return SessionTokens{}, &MissingTokensError{Missing: []string{fieldToken, fieldBuildServer, fieldBuildServerID}}
	}

	var missing []string
	value := func(name string) string {
		v, _ := doc.Find(`input[name="` + name + `"]`).First().Attr("value")
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
		return v
	}

	tokens := SessionTokens{
		Token:         value(fieldToken),
		BuildServer:   value(fieldBuildServer),
		BuildServerID: value(fieldBuildServerID),
	}
	if len(missing) > 0 {
		return SessionTokens{}, &MissingTokensError{Missing: missing}
	}
	return tokens, nil
}

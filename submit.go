package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	createImagePath = "/effect/create-image"
	submitMarker    = "Go"
)

// GenerationRequest is assembled right before submission.
type GenerationRequest struct {
	Text   string
	Tokens SessionTokens
}

// form returns the urlencoded payload of the create-image endpoint.
func (r GenerationRequest) form() map[string]string {
	return map[string]string{
		"text[]":           r.Text,
		"submit":           submitMarker,
		fieldToken:         r.Tokens.Token,
		fieldBuildServer:   r.Tokens.BuildServer,
		fieldBuildServerID: r.Tokens.BuildServerID,
	}
}

// createImageResponse is the JSON body of the create-image endpoint.
type createImageResponse struct {
	Success   bool   `json:"success"`
	FullImage string `json:"full_image"`
}

// Submitter posts generation jobs through a browser session so the cookies
// set while loading the style page go with the request.
type Submitter struct {
	endpoint string
	timeout  time.Duration
}

func NewSubmitter(siteBase string, timeout time.Duration) *Submitter {
	return &Submitter{
		endpoint: strings.TrimRight(siteBase, "/") + createImagePath,
		timeout:  timeout,
	}
}

// Submit triggers server-side rendering and returns the final image URL,
// which is the submitted build server followed by the job's image path.
func (s *Submitter) Submit(ctx context.Context, sess Session, req GenerationRequest) (string, error) {
	status, body, err := sess.PostForm(ctx, s.endpoint, req.form(), s.timeout)
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", &ServerError{Status: status}
	}

	var result createImageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v (body: %s)", ErrMalformedResponse, err, preview(body))
	}
	if !result.Success {
		return "", &GenerationRejectedError{Payload: preview(body)}
	}
	if result.FullImage == "" {
		return "", fmt.Errorf("%w: success without full_image (body: %s)", ErrMalformedResponse, preview(body))
	}

	return req.Tokens.BuildServer + result.FullImage, nil
}

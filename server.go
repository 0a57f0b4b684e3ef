package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
)

// logoGenerator is what the front-end needs from the pipeline.
type logoGenerator interface {
	Generate(ctx context.Context, text, style string) GenerationResult
}

type generateRequest struct {
	Text  string `json:"text"`
	Style string `json:"style"`
}

type generateResponse struct {
	ImageURL *string  `json:"image_url"`
	Log      string   `json:"log"`
	Lines    []string `json:"lines"`
	Error    string   `json:"error,omitempty"`
}

// Server is the thin HTTP front-end over a Generator.
type Server struct {
	gen    logoGenerator
	logger Logger
}

func NewServer(gen logoGenerator, logger Logger) *Server {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Server{gen: gen, logger: logger}
}

func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/generate":
		if !ctx.IsPost() {
			ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
			return
		}
		s.handleGenerate(ctx)
	case "/healthz":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.SetBodyString("ok")
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) handleGenerate(ctx *fasthttp.RequestCtx) {
	var req generateRequest
	if strings.HasPrefix(string(ctx.Request.Header.ContentType()), "application/json") {
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			ctx.Error("invalid JSON body", fasthttp.StatusBadRequest)
			return
		}
	} else {
		req.Text = string(ctx.FormValue("text"))
		req.Style = string(ctx.FormValue("style"))
	}

	s.logger.Log("POST /generate text=%q style=%q", req.Text, req.Style)

	// RequestCtx is recycled once the handler returns, so it is not passed down.
	res := s.gen.Generate(context.Background(), req.Text, req.Style)

	resp := generateResponse{Log: res.LogText(), Lines: res.Log()}
	if res.OK() {
		url := res.ImageURL()
		resp.ImageURL = &url
	} else {
		resp.Error = res.Reason()
	}

	body, err := json.Marshal(resp)
	if err != nil {
		ctx.Error("failed to encode response", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// ListenAndServe blocks serving the front-end on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &fasthttp.Server{
		Handler: s.Handler,
		Name:    "ephoto",
	}
	return srv.ListenAndServe(addr)
}

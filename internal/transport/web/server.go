// Package web serves the literature list and detail pages.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/yuyuan/litportal/internal/config"
	"github.com/yuyuan/litportal/internal/domain"
	"github.com/yuyuan/litportal/internal/render/artifact"
	"github.com/yuyuan/litportal/internal/render/markdown"
	healthuc "github.com/yuyuan/litportal/internal/usecase/health"
	literatureuc "github.com/yuyuan/litportal/internal/usecase/literature"
)

// Backend is what the pages need from the literature API.
type Backend interface {
	literatureuc.Fetcher
	Ping(ctx context.Context) error
}

// guideRenderer turns reading-guide markdown into HTML.
type guideRenderer interface {
	Render(src string) (template.HTML, error)
}

// Server renders portal pages from a fresh store per request.
type Server struct {
	cfg     config.Config
	backend Backend
	apiURL  *url.URL
	health  *healthuc.Service
	md      guideRenderer
	filter  artifact.Filter
	pages   map[string]*template.Template
	logger  *zap.Logger
}

// NewServer creates a Server. cfg must have passed Validate.
func NewServer(cfg config.Config, backend Backend, logger *zap.Logger) (*Server, error) {
	apiURL, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var filter artifact.Filter = artifact.Nop{}
	if cfg.Cleanup.IsEnabled() {
		filter = artifact.NewMermaid()
	}

	return &Server{
		cfg:     cfg,
		backend: backend,
		apiURL:  apiURL,
		health:  healthuc.New(backend),
		md:      markdown.New(),
		filter:  filter,
		pages:   pages,
		logger:  logger,
	}, nil
}

// Health exposes the health service for the start-up check.
func (s *Server) Health() *healthuc.Service { return s.health }

// errorStatus maps a fetch error class to an HTTP status.
type errorStatus struct {
	sentinel error
	status   int
}

// statusFor picks the response status for a failed fetch. rejected is used
// when the backend answered with success=false.
func statusFor(err error, rejected int) int {
	mapping := []errorStatus{
		{domain.ErrUnavailable, http.StatusBadGateway},
		{domain.ErrRejected, rejected},
	}
	for _, m := range mapping {
		if errors.Is(err, m.sentinel) {
			return m.status
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

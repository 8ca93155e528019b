// Package api is the HTTP client for the literature backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yuyuan/litportal/internal/domain"
	"github.com/yuyuan/litportal/internal/domain/literature"
	"github.com/yuyuan/litportal/internal/domain/query"
	"github.com/yuyuan/litportal/internal/metrics"
)

const (
	pagePath   = "/api/literature/page"
	detailPath = "/api/literature/"
	healthPath = "/api/literature/health"

	maxBodyBytes = 8 << 20
)

// Client talks to the literature backend over HTTP+JSON.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	logger    *zap.Logger
}

// Config holds the backend client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client // optional, Timeout is ignored when set
	Logger     *zap.Logger
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:   u,
		http:      hc,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}, nil
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// envelope is the {success, message, data} wrapper of every backend response.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// PageLiteratures handles POST /api/literature/page.
func (c *Client) PageLiteratures(ctx context.Context, req query.Request) (literature.Page, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return literature.Page{}, fmt.Errorf("encode page request: %w", err)
	}

	env, err := call[literature.Page](ctx, c, "list literature", "page", http.MethodPost, pagePath, body)
	if err != nil {
		return literature.Page{}, err
	}
	if env.Data.Records == nil {
		env.Data.Records = []literature.Summary{}
	}
	return env.Data, nil
}

// GetLiterature handles GET /api/literature/{id}.
func (c *Client) GetLiterature(ctx context.Context, id int64) (literature.Detail, error) {
	env, err := call[*literature.Detail](ctx, c, "get literature", "detail",
		http.MethodGet, detailPath+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return literature.Detail{}, err
	}
	if env.Data == nil {
		return literature.Detail{}, domain.NewRejected("get literature", http.StatusOK, "literature not found")
	}
	return *env.Data, nil
}

// Ping checks that the backend answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.WrapUnavailable("ping", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.NewUnavailable("ping", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	reqID := chiMiddleware.GetReqID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set(chiMiddleware.RequestIDHeader, reqID)
	return req, nil
}

// call performs one round trip and unwraps the envelope. Transport failures,
// non-envelope bodies and success=false all come back as *domain.APIError.
func call[T any](
	ctx context.Context, c *Client, op, endpoint, method, path string, body []byte,
) (_ envelope[T], err error) {
	start := time.Now()
	defer func() { c.observe(op, endpoint, start, err) }()

	var env envelope[T]

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return env, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return env, domain.WrapUnavailable(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return env, domain.WrapUnavailable(op, err)
	}

	if decodeErr := json.Unmarshal(raw, &env); decodeErr != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return env, domain.NewUnavailable(op, resp.StatusCode, statusMessage(resp.StatusCode))
		}
		return env, domain.NewUnavailable(op, resp.StatusCode, "invalid response: "+decodeErr.Error())
	}

	if !env.Success || resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if msg == "" {
			msg = op + " failed"
		}
		return env, domain.NewRejected(op, resp.StatusCode, msg)
	}
	return env, nil
}

func (c *Client) observe(op, endpoint string, start time.Time, err error) {
	dur := time.Since(start)

	status := "success"
	switch {
	case errors.Is(err, domain.ErrRejected):
		status = "rejected"
	case err != nil:
		status = "error"
	}
	metrics.APIRequestsTotal.WithLabelValues(endpoint, status).Inc()
	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(dur.Seconds())

	if err != nil {
		c.logger.Warn("backend call failed",
			zap.String("op", op),
			zap.Duration("duration", dur),
			zap.Error(err),
		)
		return
	}
	c.logger.Debug("backend call completed",
		zap.String("op", op),
		zap.Duration("duration", dur),
	)
}

func statusMessage(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return strconv.Itoa(code)
}

// Package literature holds the list/detail state behind the portal pages.
package literature

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yuyuan/litportal/internal/domain"
	domlit "github.com/yuyuan/litportal/internal/domain/literature"
	"github.com/yuyuan/litportal/internal/domain/query"
	"github.com/yuyuan/litportal/internal/metrics"
)

// ErrSuperseded is returned by a fetch whose response was dropped because a
// newer fetch of the same kind was issued (or the state was cleared) meanwhile.
var ErrSuperseded = errors.New("superseded by a newer request")

const (
	kindList   = "list"
	kindDetail = "detail"
)

// State is a point-in-time copy of the store.
type State struct {
	Params        query.Params
	List          []domlit.Summary
	Total         int64
	Loading       bool
	Detail        *domlit.Detail
	DetailLoading bool
	Error         string
	TagOptions    []domlit.FilterOption
}

// Store mirrors backend list/detail results into view state.
// Safe for concurrent use; the lock is not held while a request is in flight.
type Store struct {
	fetcher  Fetcher
	logger   *zap.Logger
	defaults query.Params

	mu            sync.Mutex
	params        query.Params
	list          []domlit.Summary
	total         int64
	loading       bool
	detail        *domlit.Detail
	detailLoading bool
	errMsg        string
	tagOptions    []domlit.FilterOption

	// Latest issued token per kind; only the matching response is applied.
	listToken   uint64
	detailToken uint64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for failed and discarded fetches.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPageSize changes the page size of the default record.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.defaults.Size = n
		}
	}
}

// New creates a Store in its initial state.
func New(f Fetcher, opts ...Option) *Store {
	s := &Store{
		fetcher:  f,
		logger:   zap.NewNop(),
		defaults: query.Defaults(),
	}
	for _, o := range opts {
		o(s)
	}
	s.resetLocked()
	return s
}

func (s *Store) resetLocked() {
	s.params = s.defaults.Clone()
	s.list = []domlit.Summary{}
	s.total = 0
	s.loading = false
	s.detail = nil
	s.detailLoading = false
	s.errMsg = ""
	s.tagOptions = []domlit.FilterOption{}
}

// Reset returns the store to its initial state and drops every in-flight response.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listToken++
	s.detailToken++
	s.resetLocked()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Params:        s.params.Clone(),
		List:          append([]domlit.Summary{}, s.list...),
		Total:         s.total,
		Loading:       s.loading,
		DetailLoading: s.detailLoading,
		Error:         s.errMsg,
		TagOptions:    append([]domlit.FilterOption{}, s.tagOptions...),
	}
	if s.detail != nil {
		d := *s.detail
		st.Detail = &d
	}
	return st
}

// QueryParams returns a copy of the current query parameters.
func (s *Store) QueryParams() query.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Clone()
}

// CurrentPage returns the current page number.
func (s *Store) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Page
}

// PageSize returns the current page size.
func (s *Store) PageSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Size
}

// HasFilters reports whether any optional filter is set.
func (s *Store) HasFilters() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.HasFilters()
}

// UpdateQueryParams merges p over the current parameters.
func (s *Store) UpdateQueryParams(p query.Partial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = s.params.Merge(p)
}

// ResetQueryParams restores the default record.
func (s *Store) ResetQueryParams() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = s.defaults.Clone()
}

// SetPage moves to page n; n <= 0 is ignored.
func (s *Store) SetPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.SetPage(n)
}

// SetPageSize changes the page size and rewinds to page 1; n <= 0 is ignored.
func (s *Store) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.SetPageSize(n)
}

// ClearError drops the recorded error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

// ClearCurrentLiterature drops the detail record. A detail fetch still in
// flight will not repopulate it.
func (s *Store) ClearCurrentLiterature() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detailToken++
	s.detail = nil
	s.detailLoading = false
}

// FetchList loads the page described by the current parameters.
// On failure the previous list and total are kept and the error message is
// recorded; the error is also returned.
func (s *Store) FetchList(ctx context.Context) error {
	s.mu.Lock()
	s.listToken++
	token := s.listToken
	s.loading = true
	s.errMsg = ""
	req := s.params.Request()
	s.mu.Unlock()

	page, err := s.fetcher.PageLiteratures(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.listToken {
		s.discard(kindList, token, s.listToken)
		return ErrSuperseded
	}
	s.loading = false

	if err != nil {
		s.errMsg = domain.UserMessage(err)
		s.logger.Warn("literature list fetch failed",
			zap.Int("page", req.PageNum),
			zap.Int("size", req.PageSize),
			zap.Error(err),
		)
		return fmt.Errorf("fetch literature list: %w", err)
	}

	s.list = page.Records
	if s.list == nil {
		s.list = []domlit.Summary{}
	}
	s.total = page.Total
	if prev := s.params.Page; s.params.Clamp(s.total) {
		s.logger.Debug("page clamped",
			zap.Int("from", prev),
			zap.Int("to", s.params.Page),
			zap.Int64("total", s.total),
		)
	}
	s.tagOptions = domlit.TagOptions(s.list)
	return nil
}

// FetchDetail loads one record. The previous detail is cleared before the
// request is sent and stays nil on failure.
func (s *Store) FetchDetail(ctx context.Context, id int64) error {
	s.mu.Lock()
	s.detailToken++
	token := s.detailToken
	s.detail = nil
	s.detailLoading = true
	s.errMsg = ""
	s.mu.Unlock()

	d, err := s.fetcher.GetLiterature(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.detailToken {
		s.discard(kindDetail, token, s.detailToken)
		return ErrSuperseded
	}
	s.detailLoading = false

	if err != nil {
		s.errMsg = domain.UserMessage(err)
		s.logger.Warn("literature detail fetch failed",
			zap.Int64("id", id),
			zap.Error(err),
		)
		return fmt.Errorf("fetch literature %d: %w", id, err)
	}

	s.detail = &d
	return nil
}

func (s *Store) discard(kind string, token, latest uint64) {
	metrics.StaleResponsesTotal.WithLabelValues(kind).Inc()
	s.logger.Debug("discarding superseded response",
		zap.String("kind", kind),
		zap.Uint64("token", token),
		zap.Uint64("latest", latest),
	)
}

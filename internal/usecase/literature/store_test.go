package literature

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yuyuan/litportal/internal/domain"
	domlit "github.com/yuyuan/litportal/internal/domain/literature"
	"github.com/yuyuan/litportal/internal/domain/query"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- Mocks ---

type pageResult struct {
	page domlit.Page
	err  error
}

type detailResult struct {
	detail domlit.Detail
	err    error
}

type mockFetcher struct {
	mu       sync.Mutex
	pages    []pageResult
	details  []detailResult
	requests []query.Request
	ids      []int64
}

func (m *mockFetcher) PageLiteratures(_ context.Context, req query.Request) (domlit.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	r := m.pages[0]
	m.pages = m.pages[1:]
	return r.page, r.err
}

func (m *mockFetcher) GetLiterature(_ context.Context, id int64) (domlit.Detail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, id)
	r := m.details[0]
	m.details = m.details[1:]
	return r.detail, r.err
}

// gatedFetcher blocks every call until its gate is released, so tests can
// control the order in which responses arrive.
type gatedFetcher struct {
	started chan struct{}
	gates   map[int]chan pageResult
	dgates  map[int64]chan detailResult
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		started: make(chan struct{}, 8),
		gates:   make(map[int]chan pageResult),
		dgates:  make(map[int64]chan detailResult),
	}
}

func (g *gatedFetcher) gate(page int) chan pageResult {
	ch := make(chan pageResult, 1)
	g.gates[page] = ch
	return ch
}

func (g *gatedFetcher) dgate(id int64) chan detailResult {
	ch := make(chan detailResult, 1)
	g.dgates[id] = ch
	return ch
}

func (g *gatedFetcher) PageLiteratures(_ context.Context, req query.Request) (domlit.Page, error) {
	ch := g.gates[req.PageNum]
	g.started <- struct{}{}
	r := <-ch
	return r.page, r.err
}

func (g *gatedFetcher) GetLiterature(_ context.Context, id int64) (domlit.Detail, error) {
	ch := g.dgates[id]
	g.started <- struct{}{}
	r := <-ch
	return r.detail, r.err
}

func records(ids ...int64) []domlit.Summary {
	out := make([]domlit.Summary, len(ids))
	for i, id := range ids {
		out[i] = domlit.Summary{ID: id}
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// --- Query parameter manager ---

func TestNew_InitialState(t *testing.T) {
	s := New(&mockFetcher{})
	st := s.Snapshot()

	assert.Equal(t, query.Defaults(), st.Params)
	assert.Empty(t, st.List)
	assert.Zero(t, st.Total)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Detail)
	assert.Empty(t, st.Error)
	assert.Equal(t, 1, s.CurrentPage())
	assert.Equal(t, 10, s.PageSize())
	assert.False(t, s.HasFilters())
}

func TestWithPageSize(t *testing.T) {
	s := New(&mockFetcher{}, WithPageSize(25))
	assert.Equal(t, 25, s.PageSize())

	s.SetPageSize(5)
	s.ResetQueryParams()
	assert.Equal(t, 25, s.PageSize())

	assert.Equal(t, 10, New(&mockFetcher{}, WithPageSize(0)).PageSize())
}

func TestSetters_IgnoreNonPositive(t *testing.T) {
	s := New(&mockFetcher{})
	s.SetPage(4)
	s.UpdateQueryParams(query.Partial{Size: ptr(20)})

	for _, n := range []int{0, -1} {
		s.SetPage(n)
		s.SetPageSize(n)
	}
	assert.Equal(t, 4, s.CurrentPage())
	assert.Equal(t, 20, s.PageSize())
}

func TestSetPageSize_ResetsPage(t *testing.T) {
	s := New(&mockFetcher{})
	s.SetPage(6)
	s.SetPageSize(50)

	assert.Equal(t, 1, s.CurrentPage())
	assert.Equal(t, 50, s.PageSize())
}

func TestResetThenEmptyUpdate_YieldsDefaults(t *testing.T) {
	s := New(&mockFetcher{})
	s.UpdateQueryParams(query.Partial{
		Keyword:  ptr("rl"),
		Tags:     []string{"x"},
		FileType: ptr("md"),
		Page:     ptr(9),
	})
	require.True(t, s.HasFilters())

	s.ResetQueryParams()
	s.UpdateQueryParams(query.Partial{})

	assert.Equal(t, query.Defaults(), s.QueryParams())
}

func TestQueryParams_ReturnsCopy(t *testing.T) {
	s := New(&mockFetcher{})
	s.UpdateQueryParams(query.Partial{Tags: []string{"a"}})

	p := s.QueryParams()
	p.Tags[0] = "mutated"
	assert.Equal(t, []string{"a"}, s.QueryParams().Tags)
}

// --- List fetch ---

func TestFetchList_Success(t *testing.T) {
	f := &mockFetcher{pages: []pageResult{{page: domlit.Page{
		Records: []domlit.Summary{
			{ID: 1, Tags: []string{"nlp", "llm"}},
			{ID: 2, Tags: []string{"llm", "rag"}},
		},
		Total: 2,
	}}}}
	s := New(f)
	s.UpdateQueryParams(query.Partial{Keyword: ptr("agents")})

	require.NoError(t, s.FetchList(context.Background()))

	st := s.Snapshot()
	assert.Len(t, st.List, 2)
	assert.EqualValues(t, 2, st.Total)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.Equal(t, []domlit.FilterOption{
		{Label: "nlp", Value: "nlp"},
		{Label: "llm", Value: "llm"},
		{Label: "rag", Value: "rag"},
	}, st.TagOptions)

	require.Len(t, f.requests, 1)
	assert.Equal(t, query.Request{PageNum: 1, PageSize: 10, Keyword: "agents"}, f.requests[0])
}

func TestFetchList_ClampsPage(t *testing.T) {
	f := &mockFetcher{pages: []pageResult{{page: domlit.Page{Records: records(21, 22, 23, 24, 25), Total: 15}}}}
	s := New(f)
	s.SetPage(3)

	require.NoError(t, s.FetchList(context.Background()))
	assert.Equal(t, 2, s.CurrentPage())
	assert.Equal(t, 3, f.requests[0].PageNum)
}

func TestFetchList_EmptyTotalClampsToFirstPage(t *testing.T) {
	for _, prior := range []int{1, 2, 50} {
		f := &mockFetcher{pages: []pageResult{{page: domlit.Page{Total: 0}}}}
		s := New(f)
		s.SetPage(prior)

		require.NoError(t, s.FetchList(context.Background()))
		assert.Equal(t, 1, s.CurrentPage(), "prior page %d", prior)
		assert.NotNil(t, s.Snapshot().List)
	}
}

func TestFetchList_TagOptionsFromCurrentPageOnly(t *testing.T) {
	f := &mockFetcher{pages: []pageResult{
		{page: domlit.Page{Records: []domlit.Summary{{ID: 1, Tags: []string{"old"}}}, Total: 2}},
		{page: domlit.Page{Records: []domlit.Summary{{ID: 2, Tags: []string{"new"}}}, Total: 2}},
	}}
	s := New(f, WithPageSize(1))

	require.NoError(t, s.FetchList(context.Background()))
	s.SetPage(2)
	require.NoError(t, s.FetchList(context.Background()))

	assert.Equal(t, []domlit.FilterOption{{Label: "new", Value: "new"}}, s.Snapshot().TagOptions)
}

func TestFetchList_FailureKeepsPreviousList(t *testing.T) {
	f := &mockFetcher{pages: []pageResult{
		{page: domlit.Page{Records: records(1, 2, 3), Total: 30}},
		{err: domain.WrapUnavailable("list literature", errors.New("connection refused"))},
		{err: domain.NewRejected("list literature", 200, "keyword too long")},
	}}
	s := New(f)
	require.NoError(t, s.FetchList(context.Background()))

	err := s.FetchList(context.Background())
	require.ErrorIs(t, err, domain.ErrUnavailable)
	st := s.Snapshot()
	assert.Len(t, st.List, 3)
	assert.EqualValues(t, 30, st.Total)
	assert.Equal(t, "connection refused", st.Error)
	assert.False(t, st.Loading)

	err = s.FetchList(context.Background())
	require.ErrorIs(t, err, domain.ErrRejected)
	st = s.Snapshot()
	assert.Len(t, st.List, 3)
	assert.Equal(t, "keyword too long", st.Error)
}

func TestFetchList_SuccessClearsPreviousError(t *testing.T) {
	f := &mockFetcher{pages: []pageResult{
		{err: errors.New("boom")},
		{page: domlit.Page{Records: records(1), Total: 1}},
	}}
	s := New(f)

	require.Error(t, s.FetchList(context.Background()))
	assert.Equal(t, "boom", s.Snapshot().Error)

	require.NoError(t, s.FetchList(context.Background()))
	assert.Empty(t, s.Snapshot().Error)
}

func TestFetchList_LoadingFlagWhileInFlight(t *testing.T) {
	g := newGatedFetcher()
	gate := g.gate(1)
	s := New(g)

	done := make(chan error, 1)
	go func() { done <- s.FetchList(context.Background()) }()

	<-g.started
	assert.True(t, s.Snapshot().Loading)

	gate <- pageResult{err: errors.New("timeout")}
	require.Error(t, <-done)
	assert.False(t, s.Snapshot().Loading)
}

func TestFetchList_SupersededResponseDiscarded(t *testing.T) {
	g := newGatedFetcher()
	slow := g.gate(1)
	fast := g.gate(2)
	s := New(g)

	first := make(chan error, 1)
	go func() { first <- s.FetchList(context.Background()) }()
	<-g.started

	s.SetPage(2)
	second := make(chan error, 1)
	go func() { second <- s.FetchList(context.Background()) }()
	<-g.started

	fast <- pageResult{page: domlit.Page{Records: records(11, 12), Total: 40}}
	require.NoError(t, <-second)

	slow <- pageResult{page: domlit.Page{Records: records(1, 2), Total: 40}}
	require.ErrorIs(t, <-first, ErrSuperseded)

	st := s.Snapshot()
	require.Len(t, st.List, 2)
	assert.EqualValues(t, 11, st.List[0].ID)
	assert.False(t, st.Loading)
}

func TestFetchList_StaleResponseDoesNotClearLoading(t *testing.T) {
	g := newGatedFetcher()
	slow := g.gate(1)
	latest := g.gate(2)
	s := New(g)

	first := make(chan error, 1)
	go func() { first <- s.FetchList(context.Background()) }()
	<-g.started

	s.SetPage(2)
	second := make(chan error, 1)
	go func() { second <- s.FetchList(context.Background()) }()
	<-g.started

	slow <- pageResult{err: errors.New("late failure")}
	require.ErrorIs(t, <-first, ErrSuperseded)

	st := s.Snapshot()
	assert.True(t, st.Loading, "latest request is still in flight")
	assert.Empty(t, st.Error, "stale failure must not surface")

	latest <- pageResult{page: domlit.Page{Total: 0}}
	require.NoError(t, <-second)
	assert.False(t, s.Snapshot().Loading)
}

// --- Detail fetch ---

func TestFetchDetail_Success(t *testing.T) {
	d := domlit.Detail{Summary: domlit.Summary{ID: 7, OriginalName: "paper.pdf"}}
	f := &mockFetcher{details: []detailResult{{detail: d}}}
	s := New(f)

	require.NoError(t, s.FetchDetail(context.Background(), 7))

	st := s.Snapshot()
	require.NotNil(t, st.Detail)
	assert.Equal(t, "paper.pdf", st.Detail.OriginalName)
	assert.False(t, st.DetailLoading)
	assert.Equal(t, []int64{7}, f.ids)
}

func TestFetchDetail_NotFound(t *testing.T) {
	f := &mockFetcher{details: []detailResult{
		{detail: domlit.Detail{Summary: domlit.Summary{ID: 1}}},
		{err: domain.NewRejected("get literature", 200, "not found")},
	}}
	s := New(f)
	require.NoError(t, s.FetchDetail(context.Background(), 1))

	err := s.FetchDetail(context.Background(), 404)
	require.ErrorIs(t, err, domain.ErrRejected)

	st := s.Snapshot()
	assert.Nil(t, st.Detail, "previous detail must be cleared")
	assert.Equal(t, "not found", st.Error)
	assert.False(t, st.DetailLoading)
}

func TestFetchDetail_ClearsDetailImmediately(t *testing.T) {
	g := newGatedFetcher()
	first := g.dgate(1)
	second := g.dgate(2)
	s := New(g)

	done := make(chan error, 1)
	go func() { done <- s.FetchDetail(context.Background(), 1) }()
	<-g.started
	first <- detailResult{detail: domlit.Detail{Summary: domlit.Summary{ID: 1}}}
	require.NoError(t, <-done)
	require.NotNil(t, s.Snapshot().Detail)

	go func() { done <- s.FetchDetail(context.Background(), 2) }()
	<-g.started

	st := s.Snapshot()
	assert.Nil(t, st.Detail)
	assert.True(t, st.DetailLoading)

	second <- detailResult{detail: domlit.Detail{Summary: domlit.Summary{ID: 2}}}
	require.NoError(t, <-done)
	assert.EqualValues(t, 2, s.Snapshot().Detail.ID)
}

func TestFetchDetail_SupersededResponseDiscarded(t *testing.T) {
	g := newGatedFetcher()
	slow := g.dgate(1)
	fast := g.dgate(2)
	s := New(g)

	first := make(chan error, 1)
	go func() { first <- s.FetchDetail(context.Background(), 1) }()
	<-g.started
	second := make(chan error, 1)
	go func() { second <- s.FetchDetail(context.Background(), 2) }()
	<-g.started

	fast <- detailResult{detail: domlit.Detail{Summary: domlit.Summary{ID: 2}}}
	require.NoError(t, <-second)
	slow <- detailResult{detail: domlit.Detail{Summary: domlit.Summary{ID: 1}}}
	require.ErrorIs(t, <-first, ErrSuperseded)

	assert.EqualValues(t, 2, s.Snapshot().Detail.ID)
}

func TestClearCurrentLiterature_DropsInFlightDetail(t *testing.T) {
	g := newGatedFetcher()
	gate := g.dgate(5)
	s := New(g)

	done := make(chan error, 1)
	go func() { done <- s.FetchDetail(context.Background(), 5) }()
	<-g.started

	s.ClearCurrentLiterature()
	assert.False(t, s.Snapshot().DetailLoading)

	gate <- detailResult{detail: domlit.Detail{Summary: domlit.Summary{ID: 5}}}
	require.ErrorIs(t, <-done, ErrSuperseded)
	assert.Nil(t, s.Snapshot().Detail)
}

func TestClearError(t *testing.T) {
	f := &mockFetcher{details: []detailResult{{err: errors.New("boom")}}}
	s := New(f)
	require.Error(t, s.FetchDetail(context.Background(), 1))
	require.NotEmpty(t, s.Snapshot().Error)

	s.ClearError()
	assert.Empty(t, s.Snapshot().Error)
}

func TestReset(t *testing.T) {
	f := &mockFetcher{
		pages:   []pageResult{{page: domlit.Page{Records: records(1), Total: 1}}},
		details: []detailResult{{detail: domlit.Detail{Summary: domlit.Summary{ID: 1}}}},
	}
	s := New(f)
	s.UpdateQueryParams(query.Partial{Keyword: ptr("x")})
	require.NoError(t, s.FetchList(context.Background()))
	require.NoError(t, s.FetchDetail(context.Background(), 1))

	s.Reset()

	st := s.Snapshot()
	assert.Equal(t, query.Defaults(), st.Params)
	assert.Empty(t, st.List)
	assert.Nil(t, st.Detail)
	assert.Empty(t, st.TagOptions)
}

func TestSnapshot_IsCopy(t *testing.T) {
	f := &mockFetcher{pages: []pageResult{{page: domlit.Page{Records: records(1), Total: 1}}}}
	s := New(f)
	require.NoError(t, s.FetchList(context.Background()))

	st := s.Snapshot()
	st.List[0].ID = 99
	assert.EqualValues(t, 1, s.Snapshot().List[0].ID)
}

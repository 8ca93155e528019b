package web

import (
	"html/template"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/yuyuan/litportal/internal/domain/literature"
	"github.com/yuyuan/litportal/internal/domain/query"
	logpkg "github.com/yuyuan/litportal/internal/logger"
	"github.com/yuyuan/litportal/internal/recovery"
	healthuc "github.com/yuyuan/litportal/internal/usecase/health"
	literatureuc "github.com/yuyuan/litportal/internal/usecase/literature"
)

var pageSizeOptions = []int{10, 20, 50, 100}

func (s *Server) newStore(r *http.Request) *literatureuc.Store {
	return literatureuc.New(s.backend,
		literatureuc.WithLogger(logpkg.FromContext(r.Context())),
		literatureuc.WithPageSize(s.cfg.Paging.DefaultPageSize),
	)
}

// handleList handles GET /.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	log := logpkg.FromContext(r.Context())

	q, err := bindListQuery(r)
	if err != nil {
		log.Debug("malformed list query", zap.Error(err))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	store := s.newStore(r)
	store.UpdateQueryParams(q.filters())
	if q.Size != nil {
		store.SetPageSize(*q.Size)
	}
	if q.Page != nil {
		store.SetPage(*q.Page)
	}
	requested := store.CurrentPage()

	status := http.StatusOK
	if err := store.FetchList(r.Context()); err != nil {
		status = statusFor(err, http.StatusOK)
	} else if store.CurrentPage() != requested {
		http.Redirect(w, r, s.listURL(store.QueryParams()), http.StatusFound)
		return
	}

	st := store.Snapshot()
	v := s.newView(r, s.listBody(st))
	v.Error = st.Error
	s.render(w, r, status, "list", v)
}

// handleDetail handles GET /literature/{id}.
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	log := logpkg.FromContext(r.Context())

	id, err := bindID(r)
	if err != nil {
		log.Debug("malformed literature id", zap.Error(err))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	r = r.WithContext(logpkg.With(r.Context(), zap.Int64("literature_id", id)))

	store := s.newStore(r)
	status := http.StatusOK
	if err := store.FetchDetail(r.Context(), id); err != nil {
		status = statusFor(err, http.StatusNotFound)
	}

	st := store.Snapshot()
	v := s.newView(r, s.detailBody(r, st.Detail))
	v.Error = st.Error
	s.render(w, r, status, "detail", v)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// listURL is the canonical list URL for p. Size is kept only when it differs
// from the configured default.
func (s *Server) listURL(p query.Params) string {
	v := p.Values()
	if p.Size == s.cfg.Paging.DefaultPageSize {
		v.Del("size")
	} else {
		v.Set("size", strconv.Itoa(p.Size))
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

type itemView struct {
	ID          int64
	URL         string
	Name        string
	FileType    string
	Size        string
	Tags        []string
	Description string
	Status      string
	StatusClass string
	CreateTime  string
}

type optionView struct {
	Label    string
	Value    string
	Selected bool
}

type listBody struct {
	Items         []itemView
	Total         int64
	Page          int
	TotalPages    int
	PrevURL       string
	NextURL       string
	Keyword       string
	StartDate     string
	EndDate       string
	FileTypes     []optionView
	Tags          []optionView
	PageSizes     []optionView
	HasFilters    bool
	ShowEmptyHint bool
}

func (s *Server) listBody(st literatureuc.State) listBody {
	p := st.Params
	body := listBody{
		Items:      make([]itemView, 0, len(st.List)),
		Total:      st.Total,
		Page:       p.Page,
		TotalPages: p.MaxPage(st.Total),
		Keyword:    p.Keyword,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		HasFilters: p.HasFilters(),
	}
	for i := range st.List {
		body.Items = append(body.Items, newItemView(&st.List[i]))
	}
	body.ShowEmptyHint = len(body.Items) == 0 && st.Error == ""

	if p.Page > 1 {
		prev := p.Clone()
		prev.Page--
		body.PrevURL = s.listURL(prev)
	}
	if p.Page < body.TotalPages {
		next := p.Clone()
		next.Page++
		body.NextURL = s.listURL(next)
	}

	for _, o := range literature.FileTypeOptions() {
		body.FileTypes = append(body.FileTypes, optionView{
			Label:    o.Label + " (" + o.Value + ")",
			Value:    o.Value,
			Selected: o.Value == p.FileType,
		})
	}

	// Selected tags stay visible even when the current page does not carry them.
	selected := make(map[string]bool, len(p.Tags))
	for _, t := range p.Tags {
		selected[t] = true
	}
	seen := make(map[string]bool)
	for _, o := range st.TagOptions {
		seen[o.Value] = true
		body.Tags = append(body.Tags, optionView{Label: o.Label, Value: o.Value, Selected: selected[o.Value]})
	}
	for _, t := range p.Tags {
		if !seen[t] {
			body.Tags = append(body.Tags, optionView{Label: t, Value: t, Selected: true})
		}
	}

	sizes := append([]int{}, pageSizeOptions...)
	if !containsInt(sizes, p.Size) {
		sizes = append(sizes, p.Size)
	}
	for _, n := range sizes {
		body.PageSizes = append(body.PageSizes, optionView{
			Label:    strconv.Itoa(n) + " / page",
			Value:    strconv.Itoa(n),
			Selected: n == p.Size,
		})
	}
	return body
}

func newItemView(rec *literature.Summary) itemView {
	return itemView{
		ID:          rec.ID,
		URL:         "/literature/" + strconv.FormatInt(rec.ID, 10),
		Name:        rec.OriginalName,
		FileType:    rec.FileType,
		Size:        literature.FormatSize(rec.FileSize),
		Tags:        rec.Tags,
		Description: rec.Description,
		Status:      rec.StatusLabel(),
		StatusClass: statusClass(rec.Status),
		CreateTime:  rec.CreateTime.String(),
	}
}

func statusClass(st literature.Status) string {
	switch st {
	case literature.StatusCompleted:
		return "status-completed"
	case literature.StatusFailed:
		return "status-failed"
	default:
		return "status-processing"
	}
}

type detailBody struct {
	Item          itemView
	UpdateTime    string
	ContentLength int
	DownloadURL   string
	Guide         template.HTML
	GuideSource   string // shown verbatim when rendering failed
	Processing    bool
	Found         bool
}

func (s *Server) detailBody(r *http.Request, d *literature.Detail) detailBody {
	if d == nil {
		return detailBody{}
	}
	body := detailBody{
		Item:          newItemView(&d.Summary),
		UpdateTime:    d.UpdateTime.String(),
		ContentLength: d.ContentLength,
		DownloadURL:   "/api/literature/" + strconv.FormatInt(d.ID, 10) + "/download",
		Processing:    d.Status == literature.StatusProcessing,
		Found:         true,
	}

	// A parser panic on a malformed guide costs the guide, not the page.
	var guide template.HTML
	err := recovery.Do(func() error {
		var err error
		guide, err = s.md.Render(d.ReadingGuide())
		return err
	})
	if err != nil {
		logpkg.FromContext(r.Context()).Warn("render reading guide",
			zap.Int64("id", d.ID),
			zap.Error(err),
		)
		body.GuideSource = d.ReadingGuide()
		return body
	}
	body.Guide = guide
	return body
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

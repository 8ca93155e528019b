package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/yuyuan/litportal/internal/domain/literature"
	"github.com/yuyuan/litportal/internal/domain/query"
)

const dateLayout = "2006-01-02"

// listQuery is the list page's URL query. Nil fields were not supplied.
type listQuery struct {
	Page      *int
	Size      *int
	Keyword   *string
	Tags      *[]string
	FileType  *string
	StartDate *string
	EndDate   *string
}

func bindListQuery(r *http.Request) (listQuery, error) {
	var q listQuery
	values := r.URL.Query()

	bindings := []struct {
		name string
		dest any
	}{
		{"page", &q.Page},
		{"size", &q.Size},
		{"keyword", &q.Keyword},
		{"tags", &q.Tags},
		{"fileType", &q.FileType},
		{"startDate", &q.StartDate},
		{"endDate", &q.EndDate},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, values, b.dest); err != nil {
			return listQuery{}, fmt.Errorf("invalid format for parameter %s: %w", b.name, err)
		}
	}
	return q, nil
}

// filters turns the supplied filter fields into a store overlay. Unknown file
// types and malformed dates are dropped.
func (q listQuery) filters() query.Partial {
	var p query.Partial
	if q.Keyword != nil {
		kw := strings.TrimSpace(*q.Keyword)
		p.Keyword = &kw
	}
	if q.Tags != nil {
		p.Tags = *q.Tags
	}
	if q.FileType != nil && (*q.FileType == "" || literature.FileType(*q.FileType).IsValid()) {
		p.FileType = q.FileType
	}
	p.StartDate = validDate(q.StartDate)
	p.EndDate = validDate(q.EndDate)
	return p
}

func validDate(s *string) *string {
	if s == nil {
		return nil
	}
	if *s == "" {
		return s
	}
	if _, err := time.Parse(dateLayout, *s); err != nil {
		return nil
	}
	return s
}

// bindID reads the {id} path segment as an integer.
func bindID(r *http.Request) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return 0, fmt.Errorf("invalid format for parameter id: %w", err)
	}
	return id, nil
}

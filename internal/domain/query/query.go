// Package query holds the list page's query parameters.
package query

import (
	"net/url"
	"strconv"
)

// DefaultPageSize is the size of the default record.
const DefaultPageSize = 10

// Params is the full set of list query parameters.
// Page and Size are always positive.
type Params struct {
	Page      int
	Size      int
	Keyword   string
	Tags      []string
	FileType  string
	StartDate string
	EndDate   string
}

// Defaults returns the default record: first page of DefaultPageSize, no filters.
func Defaults() Params {
	return Params{
		Page: 1,
		Size: DefaultPageSize,
		Tags: []string{},
	}
}

// Partial overlays Params. Nil fields keep the current value.
type Partial struct {
	Page      *int
	Size      *int
	Keyword   *string
	Tags      []string // nil keeps, empty clears
	FileType  *string
	StartDate *string
	EndDate   *string
}

// Merge returns p with every set field of o applied. No validation is done
// here; use SetPage and SetPageSize for checked updates.
func (p Params) Merge(o Partial) Params {
	out := p.Clone()
	if o.Page != nil {
		out.Page = *o.Page
	}
	if o.Size != nil {
		out.Size = *o.Size
	}
	if o.Keyword != nil {
		out.Keyword = *o.Keyword
	}
	if o.Tags != nil {
		out.Tags = normalizeTags(o.Tags)
	}
	if o.FileType != nil {
		out.FileType = *o.FileType
	}
	if o.StartDate != nil {
		out.StartDate = *o.StartDate
	}
	if o.EndDate != nil {
		out.EndDate = *o.EndDate
	}
	return out
}

// Clone returns a copy that shares no memory with p.
func (p Params) Clone() Params {
	out := p
	out.Tags = append([]string{}, p.Tags...)
	return out
}

// SetPage sets the page; n <= 0 is ignored.
func (p *Params) SetPage(n int) {
	if n > 0 {
		p.Page = n
	}
}

// SetPageSize sets the size and rewinds to the first page; n <= 0 is ignored.
func (p *Params) SetPageSize(n int) {
	if n > 0 {
		p.Size = n
		p.Page = 1
	}
}

// MaxPage is the last valid page for total records, never below 1.
func (p Params) MaxPage(total int64) int {
	if total <= 0 || p.Size <= 0 {
		return 1
	}
	pages := (total + int64(p.Size) - 1) / int64(p.Size)
	if pages < 1 {
		return 1
	}
	return int(pages)
}

// Clamp pulls Page back to MaxPage(total) when it lies beyond it.
// Reports whether Page changed.
func (p *Params) Clamp(total int64) bool {
	maxPage := p.MaxPage(total)
	if p.Page > maxPage {
		p.Page = maxPage
		return true
	}
	return false
}

// HasFilters reports whether any optional filter is set.
func (p Params) HasFilters() bool {
	return p.Keyword != "" || len(p.Tags) > 0 || p.FileType != "" ||
		p.StartDate != "" || p.EndDate != ""
}

// Request is the body of POST /api/literature/page. Empty filters are
// omitted so the backend applies no filter for them.
type Request struct {
	PageNum   int      `json:"pageNum"`
	PageSize  int      `json:"pageSize"`
	Keyword   string   `json:"keyword,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	FileType  string   `json:"fileType,omitempty"`
	StartDate string   `json:"startDate,omitempty"`
	EndDate   string   `json:"endDate,omitempty"`
}

// Request builds the wire request for p.
func (p Params) Request() Request {
	req := Request{
		PageNum:   p.Page,
		PageSize:  p.Size,
		Keyword:   p.Keyword,
		FileType:  p.FileType,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
	}
	if len(p.Tags) > 0 {
		req.Tags = append([]string{}, p.Tags...)
	}
	return req
}

// Values encodes p as a URL query, leaving out defaults and empty filters.
func (p Params) Values() url.Values {
	v := url.Values{}
	if p.Page != 1 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Size != DefaultPageSize {
		v.Set("size", strconv.Itoa(p.Size))
	}
	if p.Keyword != "" {
		v.Set("keyword", p.Keyword)
	}
	for _, t := range p.Tags {
		v.Add("tags", t)
	}
	if p.FileType != "" {
		v.Set("fileType", p.FileType)
	}
	if p.StartDate != "" {
		v.Set("startDate", p.StartDate)
	}
	if p.EndDate != "" {
		v.Set("endDate", p.EndDate)
	}
	return v
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Package literature holds the records the backend serves for the list and
// detail pages.
package literature

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the backend's timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

// Timestamp decodes the backend's "yyyy-MM-dd HH:mm:ss" strings.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts null, "" and TimeLayout strings.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes TimeLayout, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(TimeLayout) + `"`), nil
}

// String formats the timestamp for display.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}

// Status is the processing state of an imported document.
type Status int

// Status values.
const (
	StatusProcessing Status = 0
	StatusCompleted  Status = 1
	StatusFailed     Status = 2
)

// String returns a display label.
func (s Status) String() string {
	switch s {
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Summary is one row of the list page.
type Summary struct {
	ID                  int64     `json:"id"`
	OriginalName        string    `json:"originalName"`
	FileSize            int64     `json:"fileSize"`
	FileType            string    `json:"fileType"`
	ContentLength       int       `json:"contentLength"`
	Tags                []string  `json:"tags"`
	Description         string    `json:"description"`
	ReadingGuideSummary string    `json:"readingGuideSummary"`
	Status              Status    `json:"status"`
	StatusDesc          string    `json:"statusDesc"`
	CreateTime          Timestamp `json:"createTime"`
	UpdateTime          Timestamp `json:"updateTime"`
}

// StatusLabel prefers the backend's description.
func (s *Summary) StatusLabel() string {
	if s.StatusDesc != "" {
		return s.StatusDesc
	}
	return s.Status.String()
}

// Detail is the full record. On the detail endpoint ReadingGuideSummary
// carries the complete reading guide in markdown.
type Detail struct {
	Summary
}

// ReadingGuide returns the markdown guide.
func (d *Detail) ReadingGuide() string { return d.ReadingGuideSummary }

// Page is the data part of a paged list response.
type Page struct {
	Records    []Summary `json:"records"`
	Total      int64     `json:"total"`
	PageNum    int       `json:"pageNum,omitempty"`
	PageSize   int       `json:"pageSize,omitempty"`
	TotalPages int       `json:"totalPages,omitempty"`
	HasNext    bool      `json:"hasNext,omitempty"`
	HasPrev    bool      `json:"hasPrev,omitempty"`
}

// FilterOption is a label/value pair for a filter control.
type FilterOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// TagOptions returns the distinct tags of records in first-seen order.
func TagOptions(records []Summary) []FilterOption {
	seen := make(map[string]struct{})
	opts := make([]FilterOption, 0)
	for i := range records {
		for _, tag := range records[i].Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			opts = append(opts, FilterOption{Label: tag, Value: tag})
		}
	}
	return opts
}

// FormatSize renders a byte count for display.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	logpkg "github.com/yuyuan/litportal/internal/logger"
	"github.com/yuyuan/litportal/internal/render/artifact"
)

const genericErrorMessage = "Something went wrong while rendering this page."

// Written when even the error page cannot be rendered.
const fallbackPage = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Error</title></head>` +
	`<body><h1>Error</h1><p>Something went wrong while rendering this page.</p>` +
	`<p><a href="/">Back to list</a></p></body></html>`

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"list", "detail", "error"}

func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// view is the data every page template receives.
type view struct {
	Title         string
	SiteName      string
	MermaidScript string
	Error         string
	Cleanup       *artifact.ClientRules // nil when artifact cleanup is off
	Body          any
}

func (s *Server) newView(r *http.Request, body any) view {
	title := routeFromContext(r.Context()).Title
	if title == "" {
		title = s.cfg.Site.Name
	}
	v := view{
		Title:         title,
		SiteName:      s.cfg.Site.Name,
		MermaidScript: s.cfg.Site.MermaidScript,
		Body:          body,
	}
	if cs, ok := s.filter.(artifact.ClientSide); ok {
		rules := cs.ClientRules()
		v.Cleanup = &rules
	}
	return v
}

// render executes a page into a buffer first so a template failure never
// leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, v view) {
	var buf bytes.Buffer
	if err := s.execute(&buf, name, v); err != nil {
		logpkg.FromContext(r.Context()).Error("render page",
			zap.String("page", name),
			zap.Error(err),
		)
		s.renderError(w, r, http.StatusInternalServerError, genericErrorMessage)
		return
	}
	writeHTML(w, status, buf.Bytes())
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	v := s.newView(r, nil)
	v.Error = msg

	var buf bytes.Buffer
	if err := s.execute(&buf, "error", v); err != nil {
		s.logger.Error("render error page", zap.Error(err))
		writeHTML(w, status, []byte(fallbackPage))
		return
	}
	writeHTML(w, status, buf.Bytes())
}

func (s *Server) execute(buf *bytes.Buffer, name string, v view) error {
	t, ok := s.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(buf, "layout", v)
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

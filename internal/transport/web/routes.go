package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yuyuan/litportal/internal/metrics"
	"github.com/yuyuan/litportal/internal/render/artifact"
)

// Route names.
const (
	RouteLiteratureList   = "LiteratureList"
	RouteLiteratureDetail = "LiteratureDetail"
)

// Route is one logical page of the portal.
type Route struct {
	Name    string
	Pattern string
	Title   string
	handler http.HandlerFunc
}

// Routes returns the page table. Titles come from the site config.
func (s *Server) Routes() []Route {
	return []Route{
		{
			Name:    RouteLiteratureList,
			Pattern: "/",
			Title:   s.cfg.Site.ListTitle,
			handler: s.handleList,
		},
		{
			Name:    RouteLiteratureDetail,
			Pattern: "/literature/{id}",
			Title:   s.cfg.Site.DetailTitle,
			handler: s.handleDetail,
		},
	}
}

// Handler builds the full router: pages, support endpoints and the API proxy.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.htmlRecoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(metrics.Middleware())

	r.Group(func(r chi.Router) {
		r.Use(artifact.Middleware(s.filter))
		for _, rt := range s.Routes() {
			r.With(s.titleGuard(rt)).Get(rt.Pattern, rt.handler)
		}
	})

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/api/*", s.apiProxy())

	// Unknown paths fall back to the list page.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})
	return r
}

type routeKey struct{}

// routeMeta is what the title guard resolved for the current request.
type routeMeta struct {
	Name  string
	Title string // "<route title> - <site name>"
}

// titleGuard resolves the document title before the page handler runs.
func (s *Server) titleGuard(rt Route) func(http.Handler) http.Handler {
	meta := routeMeta{Name: rt.Name, Title: documentTitle(rt.Title, s.cfg.Site.Name)}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), routeKey{}, meta)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func documentTitle(title, site string) string {
	switch {
	case title == "":
		return site
	case site == "":
		return title
	}
	return title + " - " + site
}

func routeFromContext(ctx context.Context) routeMeta {
	if m, ok := ctx.Value(routeKey{}).(routeMeta); ok {
		return m
	}
	return routeMeta{}
}

package web

import (
	"net/http"
	"net/http/httputil"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	logpkg "github.com/yuyuan/litportal/internal/logger"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// apiProxy forwards /api/* to the literature backend, e.g. file downloads
// linked from the detail page.
func (s *Server) apiProxy() http.Handler {
	target := s.apiURL
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if id := chiMiddleware.GetReqID(pr.In.Context()); id != "" {
				pr.Out.Header.Set("X-Request-ID", id)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logpkg.FromContext(r.Context()).Warn("api proxy failed",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			writeJSON(w, http.StatusBadGateway, envelope{
				Success: false,
				Message: http.StatusText(http.StatusBadGateway),
			})
		},
	}

	if len(s.cfg.CORS.AllowedOrigins) == 0 {
		return proxy
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	})(proxy)
}

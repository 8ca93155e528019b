package artifact

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/yuyuan/litportal/internal/logger"
	"github.com/yuyuan/litportal/internal/metrics"
)

// Middleware buffers HTML responses and runs f over the finished document
// before it is sent. Other content types pass through unchanged.
func Middleware(f Filter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if _, ok := f.(Nop); ok {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bw := &bufferedWriter{header: w.Header(), status: http.StatusOK}
			next.ServeHTTP(bw, r)

			body := bw.buf.Bytes()
			if isHTML(w.Header().Get("Content-Type")) && len(body) > 0 {
				body = apply(r, f, body)
			}
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.WriteHeader(bw.status)
			_, _ = w.Write(body)
		})
	}
}

func apply(r *http.Request, f Filter, body []byte) []byte {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		logger.FromContext(r.Context()).Warn("parse rendered page", zap.Error(err))
		return body
	}
	removed := f.Apply(doc)
	if removed == 0 {
		return body
	}
	metrics.ArtifactsRemovedTotal.WithLabelValues(f.Name()).Add(float64(removed))
	logger.FromContext(r.Context()).Debug("render artifacts removed",
		zap.String("filter", f.Name()),
		zap.Int("count", removed),
	)

	out, err := doc.Html()
	if err != nil {
		logger.FromContext(r.Context()).Warn("serialize filtered page", zap.Error(err))
		return body
	}
	return []byte(out)
}

func isHTML(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/html")
}

type bufferedWriter struct {
	header http.Header
	buf    bytes.Buffer
	status int
	wrote  bool
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) WriteHeader(code int) {
	if b.wrote {
		return
	}
	b.status = code
	b.wrote = true
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.wrote = true
	return b.buf.Write(p)
}

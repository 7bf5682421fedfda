package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/perimetra/fwapi/internal/metrics"
)

// accessLogWriter wraps http.ResponseWriter to capture the status code.
type accessLogWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *accessLogWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *accessLogWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// routeLabel collapses path parameters so metric cardinality stays bounded.
func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/firewalls/vms/"):
		return "/firewalls/vms/{uuid}"
	case strings.HasPrefix(path, "/firewalls/rules/"):
		return "/firewalls/rules/{uuid}"
	default:
		return path
	}
}

// accessLog logs every request and records API metrics.
func (s *Server) accessLog(next http.Handler) http.Handler {
	reg := metrics.Get()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &accessLogWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)

		route := routeLabel(r.URL.Path)
		reg.APIRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		reg.APILatency.WithLabelValues(r.Method, route).Observe(duration.Seconds())

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"status", rw.status,
			"size", rw.size,
			"duration", duration.String())
	})
}

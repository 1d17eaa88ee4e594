package middleware

import (
	"log"
	"net/http"
	"time"
)

// statusRecorder captures the status code and body size for the access log
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.written += int64(n)
	return n, err
}

// LoggingMiddleware logs every request on the ops surface. The tenant comes
// from the /v1/{tenant} path segment, same key the rate limiter uses, so the
// access log and the bucket rejections line up per tenant.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rec, r)

		tenant := tenantFromPath(r.URL.Path)
		if tenant == "" {
			tenant = "-"
		}
		log.Printf(
			"tenant=%s method=%s path=%s status=%d duration=%s bytes=%d ip=%s",
			tenant,
			r.Method,
			r.URL.Path,
			rec.statusCode,
			time.Since(start),
			rec.written,
			r.RemoteAddr,
		)
	})
}

package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Logging attaches logger to each request context and writes one access
// line per request: remote, request line, status, size and serve time.
func Logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	access := hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("remote", r.RemoteAddr).
			Str("request", r.Method+" "+r.URL.RequestURI()+" "+r.Proto).
			Int("status", status).
			Int("size_in_bytes", size).
			Float64("serve_time", d.Seconds()).
			Msg("access")
	})
	return func(next http.Handler) http.Handler {
		return hlog.NewHandler(logger)(RequestID(access(next)))
	}
}

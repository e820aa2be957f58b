package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gymnastic/shopcart-backend/pkg/metrics"
)

// Metrics records request counts and latencies for every handled request.
func Metrics(httpMetrics *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			httpMetrics.Observe(r.Method, strconv.Itoa(rec.status), time.Since(start))
		})
	}
}

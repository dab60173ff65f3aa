package middleware

import (
	"net/http"

	"moneypot-backend/internal/admission"
	"moneypot-backend/internal/api/httpx"
	"moneypot-backend/internal/metrics"
)

// Admission gates a write route on the shared permit pool. A request that
// gets no permit before the limiter's timeout is told to retry later.
func Admission(gate *admission.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := gate.Acquire(r.Context())
			if !ok {
				metrics.AdmissionRejected.Inc()
				httpx.WriteError(w, http.StatusTooManyRequests, "admission_rejected", "too many concurrent requests, please try again later", nil)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}

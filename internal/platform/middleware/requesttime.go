package middleware

import (
	"net/http"
	"time"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/requestcontext"
)

// RequestTime captures the current time at the start of the request and
// stores it in the context. All operations within one request then share the
// same "now", keeping audit timestamps and domain timestamps consistent.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

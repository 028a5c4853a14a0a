// Package requesttime pins one clock reading per HTTP request. The withdrawal
// gate and audit timestamps read it through requestcontext.Now.
package requesttime

import (
	"net/http"
	"time"

	"custody/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

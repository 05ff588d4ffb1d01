package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/hongminglow/finance-ledger/internal/http/respond"
)

// Recover turns a panic in next into a 500 response and logs the stack.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			Logger(r.Context()).Error("panic serving request",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			respond.Error(w, http.StatusInternalServerError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/server/httperr"
)

// Recover 攔截 handler panic：記錄 stack，回傳 500 JSON。
//
// http.ErrAbortHandler 會原樣往上拋，讓 net/http 中斷連線。
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.LogAttrs(r.Context(), slog.LevelError, "http.panic",
					slog.String("req_id", GetReqId(r)),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				if !upgrading(r) {
					httperr.Errs(w, errs.NewFatal(fmt.Sprintf("internal error: %v", rec)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

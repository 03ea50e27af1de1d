package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/dgeemedia/cse340-backend/internal/metrics"
	"github.com/dgeemedia/cse340-backend/pkg/utils"
)

const msgInternalError = "Something went wrong. Please try again later."

func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				metrics.PanicsRecovered.Inc()
				log.Printf("PANIC RECOVERED [%s] %s %s: %v\n%s",
					RequestIDFromContext(r.Context()), r.Method, r.URL.Path, err, debug.Stack())

				if WantsJSON(r) {
					utils.Error(w, http.StatusInternalServerError, msgInternalError)
					return
				}
				http.Error(w, msgInternalError, http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

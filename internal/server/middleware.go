package server

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/tartampluch/go-nlcep/internal/config"
)

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// accessLog logs every request once it has been served.
func (s *ParseServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set(config.HeaderServer, config.ServerHeader)

		next.ServeHTTP(rec, r)

		s.served.Add(1)
		s.Logger.Info(config.MsgRequestServed,
			config.LogKeyMethod, r.Method,
			config.LogKeyPath, r.URL.Path,
			config.LogKeyStatus, rec.status,
			config.LogKeyDuration, time.Since(start).Milliseconds(),
		)
	})
}

// recoverer turns a panicking handler into a 500 and logs the stack.
func (s *ParseServer) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.Logger.Error(config.ErrPanicRecovered,
					config.LogKeyError, v,
					config.LogKeyPath, r.URL.Path,
					config.LogKeyStack, string(debug.Stack()),
				)
				http.Error(w, config.HTTPMsgInternalErr, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

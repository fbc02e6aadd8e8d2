package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WrapWithRecover turns a handler panic into a 500 with the json error body
// the API answers for any failure, {"error": reason}.
func WrapWithRecover(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}

			var reason string
			switch e := v.(type) {
			case string:
				reason = e
			case error:
				reason = e.Error()
			default:
				reason = fmt.Sprintf("panic: %v", v)
			}
			log.Errorf("[%s %s] recovered: %s\n%s", r.Method, r.RequestURI, reason, debug.Stack())

			body, _ := json.Marshal(map[string]string{"error": reason})
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write(body)
		}()

		h.ServeHTTP(w, r)
	})
}

// Package api exposes a checkpoint strategy over HTTP for operators.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/kgibm/resume/pkg/checkpoint"
	"github.com/kgibm/resume/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type APIHandler func(w http.ResponseWriter, r *http.Request, params map[string]interface{}) (interface{}, error)

// Server serves the admin API of a string keyed strategy.
type Server struct {
	name     string
	strategy checkpoint.Strategy[string, string]

	startedAt time.Time
	pid       int
	hostname  string

	router   *mux.Router
	paths    []string
	server   *http.Server
	listener net.Listener
}

func New(strategy checkpoint.Strategy[string, string], name string) *Server {
	this := &Server{
		name:      name,
		strategy:  strategy,
		startedAt: time.Now(),
		pid:       os.Getpid(),
		router:    mux.NewRouter().UseEncodedPath(),
	}
	this.hostname, _ = os.Hostname()

	this.setupAPIRoutings()
	return this
}

// Handler returns the routes wrapped with recover and access log.
func (this *Server) Handler() http.Handler {
	return middleware.WrapWithRecover(middleware.WrapAccesslog(this.router))
}

// Start listens on addr and serves in background.
func (this *Server) Start(addr string) (err error) {
	this.server = &http.Server{
		Addr:         addr,
		Handler:      this.Handler(),
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
	}

	if this.listener, err = net.Listen("tcp", addr); err != nil {
		return
	}

	go this.server.Serve(this.listener)
	log.Infof("[%s] API server ready on http://%s", this.name, this.listener.Addr())
	return
}

// Addr returns the listening address once started.
func (this *Server) Addr() string {
	if this.listener == nil {
		return ""
	}
	return this.listener.Addr().String()
}

func (this *Server) Stop(ctx context.Context) error {
	if this.server == nil {
		return nil
	}

	err := this.server.Shutdown(ctx)
	log.Infof("[%s] API server stopped", this.name)
	return err
}

func (this *Server) setupAPIRoutings() {
	// admin
	this.RegisterAPI("/stat", this.handleAPIStat).Methods("GET")
	this.RegisterAPI("/metrics", this.handleAPIMetrics).Methods("GET")

	// API
	this.RegisterAPI("/api/v1/offsets", this.handleAPIOffsets).Methods("GET")
	this.RegisterAPI("/api/v1/offsets/{key}", this.handleAPIGetOffset).Methods("GET")
	this.RegisterAPI("/api/v1/offsets/{key}", this.handleAPISetOffset).Methods("PUT")
	this.RegisterAPI("/api/v1/health", this.handleAPIHealth).Methods("GET")

	this.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "resume")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)

		body, _ := json.Marshal(map[string]string{"error": fmt.Sprintf("no route of %s", r.URL.EscapedPath())})
		w.Write(body)
	})
}

// RegisterAPI routes path to handlerFunc, the returned value is written as json.
// If handler returns nil, that means it will control the output.
func (this *Server) RegisterAPI(path string, handlerFunc APIHandler) *mux.Route {
	this.paths = append(this.paths, path)

	return this.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		var ret interface{}

		params, err := this.decodeHttpParams(r)
		if err == nil {
			ret, err = handlerFunc(w, r, params)
		}

		w.Header().Set("Server", "resume")
		if ret != nil || err != nil {
			w.Header().Set("Content-Type", "application/json")
		}
		if err != nil {
			ret = map[string]interface{}{"error": err.Error()}
			w.WriteHeader(statusOf(err))
		}

		if ret != nil {
			// pretty write json result
			pretty, _ := json.MarshalIndent(ret, "", "    ")
			w.Write(pretty)
		}
	})
}

func (this *Server) decodeHttpParams(r *http.Request) (map[string]interface{}, error) {
	params := make(map[string]interface{})
	if r.Body == nil {
		return params, nil
	}

	err := json.NewDecoder(r.Body).Decode(&params)
	if err != nil && err != io.EOF {
		return nil, badRequest(err)
	}

	return params, nil
}

type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string {
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

var errOffsetMissing = errors.New("offset is required")

// keyOf returns the unescaped {key} of r, e,g. %2Fvar%2Flog%2Fapp.log is /var/log/app.log.
func keyOf(r *http.Request) (string, error) {
	key, err := url.PathUnescape(mux.Vars(r)["key"])
	if err != nil {
		return "", badRequest(err)
	}
	return key, nil
}

func badRequest(err error) error {
	return &statusError{code: http.StatusBadRequest, err: err}
}

func notFound(err error) error {
	return &statusError{code: http.StatusNotFound, err: err}
}

func unavailable(err error) error {
	return &statusError{code: http.StatusServiceUnavailable, err: err}
}

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}

	if errors.Is(err, checkpoint.ErrNotStarted) || errors.Is(err, checkpoint.ErrStopped) {
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

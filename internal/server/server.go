// Package server is the worker pool's HTTP front. It plays the role the
// upstream broker plays in production: it turns HTTP requests into jobs,
// load-balances them over the worker replicas, and writes replies. Route
// successes are not answered here; their forward message goes downstream.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/routecraft/anchor/internal/metrics"
	"github.com/routecraft/anchor/internal/models"
	"github.com/routecraft/anchor/internal/worker"
)

const corsHeader = "Access-Control-Allow-Origin"

// DefaultActions is the standard path dispatch table. It is built once at
// startup and injected; it never changes while the server runs.
func DefaultActions() map[string]models.Action {
	return map[string]models.Action{
		"/route":    models.ActionRoute,
		"/viaroute": models.ActionViaRoute,
		"/locate":   models.ActionLocate,
		"/nearest":  models.ActionNearest,
		"/version":  models.ActionVersion,
	}
}

type job struct {
	ctx    context.Context
	action models.Action
	raw    worker.RawRequest
	reply  chan worker.Outcome
}

// Server dispatches requests to a pool of worker replicas, each owning its
// own graph reader and cost factory.
type Server struct {
	log          *slog.Logger
	metrics      *metrics.Metrics
	actions      map[string]models.Action
	notFoundBody string
	forwarder    Forwarder
	newWorker    func() *worker.Worker
	replicas     int

	jobs chan job
	wg   sync.WaitGroup
}

// New builds a server front for the given pool size. newWorker is called
// once per replica so replicas never share mutable state.
func New(
	log *slog.Logger,
	m *metrics.Metrics,
	actions map[string]models.Action,
	forwarder Forwarder,
	replicas int,
	newWorker func() *worker.Worker,
) *Server {
	paths := make([]string, 0, len(actions))
	for path := range actions {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	var body strings.Builder
	body.WriteString("Try any of: ")
	for _, path := range paths {
		body.WriteString("'" + path + "' ")
	}

	return &Server{
		log:          log,
		metrics:      m,
		actions:      actions,
		notFoundBody: body.String(),
		forwarder:    forwarder,
		newWorker:    newWorker,
		replicas:     replicas,
		jobs:         make(chan job),
	}
}

// Run starts the worker replicas. They stop when ctx is canceled.
func (s *Server) Run(ctx context.Context) {
	for i := 0; i < s.replicas; i++ {
		s.wg.Add(1)
		go s.workerLoop(ctx, i)
	}
}

// Wait blocks until all replicas have stopped.
func (s *Server) Wait() { s.wg.Wait() }

// workerLoop is one replica: block on the next job, handle it, reply.
func (s *Server) workerLoop(ctx context.Context, idx int) {
	defer s.wg.Done()
	w := s.newWorker()
	s.log.InfoContext(ctx, "Worker replica started", "replica", idx)
	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "Worker replica stopped", "replica", idx)
			return
		case j := <-s.jobs:
			s.metrics.BusyWorkers.Inc()
			j.reply <- w.Handle(j.ctx, j.action, j.raw)
			s.metrics.BusyWorkers.Dec()
		}
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set(corsHeader, "*")

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(rw, "Try a POST or GET request instead", http.StatusMethodNotAllowed)
		return
	}
	action, ok := s.actions[r.URL.Path]
	if !ok {
		http.Error(rw, s.notFoundBody, http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(rw, "Failed to read request body", http.StatusBadRequest)
		return
	}
	raw := worker.RawRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   body,
	}

	start := time.Now()
	outcome, ok := s.dispatch(r.Context(), action, raw)
	if !ok {
		http.Error(rw, "Request canceled", http.StatusServiceUnavailable)
		return
	}
	s.metrics.RequestSeconds.WithLabelValues(action.String()).Observe(time.Since(start).Seconds())
	s.metrics.RequestsTotal.WithLabelValues(action.String(), strconv.Itoa(outcome.Status())).Inc()

	if outcome.Forward != nil {
		if err := s.forwarder.Forward(r.Context(), outcome.Forward); err != nil {
			s.log.ErrorContext(r.Context(), "Failed to forward request downstream", "error", err)
			http.Error(rw, "Failed to forward request to the path stage", http.StatusBadGateway)
			return
		}
		rw.WriteHeader(http.StatusAccepted)
		return
	}

	resp := outcome.Response
	if resp.ContentType != "" {
		rw.Header().Set("Content-Type", resp.ContentType)
	}
	rw.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		if _, err := rw.Write(resp.Body); err != nil {
			s.log.ErrorContext(r.Context(), "Failed to write reply", "error", err)
		}
	}
}

// dispatch hands a job to the pool and waits for the reply. The false
// return means the client went away before a worker picked the job up.
func (s *Server) dispatch(ctx context.Context, action models.Action, raw worker.RawRequest) (worker.Outcome, bool) {
	j := job{ctx: ctx, action: action, raw: raw, reply: make(chan worker.Outcome, 1)}
	select {
	case s.jobs <- j:
	case <-ctx.Done():
		return worker.Outcome{}, false
	}
	select {
	case outcome := <-j.reply:
		return outcome, true
	case <-ctx.Done():
		return worker.Outcome{}, false
	}
}

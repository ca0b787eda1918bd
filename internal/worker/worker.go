// Package worker implements the per-job pipeline: decode the raw request,
// validate it into locations plus a cost model, run the connectivity gate,
// correlate every location and build the outbound message. One worker
// handles one job at a time; correctness rests on nothing surviving past
// cleanup, not on locking.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/routecraft/anchor/internal/config"
	"github.com/routecraft/anchor/internal/correlate"
	"github.com/routecraft/anchor/internal/costing"
	"github.com/routecraft/anchor/internal/graph"
	"github.com/routecraft/anchor/internal/jsontree"
	"github.com/routecraft/anchor/internal/metrics"
	"github.com/routecraft/anchor/internal/models"
)

// JSONMime is the content type of Locate responses.
const JSONMime = "application/json;charset=utf-8"

// Phase is the worker's position in the per-job state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDecoding
	PhaseValidating
	PhaseRouting
	PhaseLocating
	PhaseResponding
)

// Response is an HTTP-shaped reply to the client.
type Response struct {
	Status      int
	Body        []byte
	ContentType string // Empty means plain text.
}

// Outcome is what one job produces: either a forward message for the next
// pipeline stage or a direct client response, never both.
type Outcome struct {
	Action   models.Action
	Forward  []byte
	Response *Response
}

// Status returns the HTTP status the outcome maps to. A forwarded request
// is acknowledged with 202 because the reply to the client comes from a
// later stage.
func (o Outcome) Status() int {
	if o.Forward != nil {
		return http.StatusAccepted
	}
	return o.Response.Status
}

// Worker owns one replica's long-lived collaborators and the per-job
// scratch state. Replicas never share mutable state.
type Worker struct {
	log      *slog.Logger
	metrics  *metrics.Metrics
	reader   graph.Reader
	factory  *costing.Factory
	searcher correlate.Searcher

	maxRouteLocations int
	maxDistance       map[string]float64
	costingDefaults   map[string]costing.Options

	// Per-job state, mandatorily cleared by cleanup.
	phase     Phase
	locations []models.Location
	cost      *costing.Model
}

// New builds a worker replica around its own reader and factory.
func New(
	cfg *config.Config,
	log *slog.Logger,
	m *metrics.Metrics,
	reader graph.Reader,
	factory *costing.Factory,
	searcher correlate.Searcher,
) *Worker {
	defaults := make(map[string]costing.Options)
	for name, opts := range cfg.CostingDefaults() {
		defaults[name] = costing.Options(opts)
	}
	return &Worker{
		log:               log,
		metrics:           m,
		reader:            reader,
		factory:           factory,
		searcher:          searcher,
		maxRouteLocations: cfg.ServiceLimits.MaxRouteLocations,
		maxDistance:       cfg.ServiceLimits.MaxDistance,
		costingDefaults:   defaults,
	}
}

// Phase reports where the worker is in its job, for tests and debugging.
func (w *Worker) Phase() Phase { return w.phase }

// Handle runs one job through the pipeline. Cleanup runs unconditionally:
// a failed job must never leak locations or costing into the next one.
func (w *Worker) Handle(ctx context.Context, action models.Action, raw RawRequest) Outcome {
	defer w.cleanup(ctx)

	w.phase = PhaseDecoding
	tree, err := Decode(raw, action)
	if err != nil {
		return w.fail(ctx, action, err)
	}

	w.phase = PhaseValidating
	if err := w.validate(ctx, action, tree); err != nil {
		return w.fail(ctx, action, err)
	}

	switch action {
	case models.ActionRoute, models.ActionViaRoute:
		w.phase = PhaseRouting
		return w.route(ctx, action, tree)
	case models.ActionLocate:
		w.phase = PhaseLocating
		return w.locate(ctx, action, tree)
	default:
		// Recognized in the path table but unhandled in dispatch.
		w.phase = PhaseResponding
		return Outcome{Action: action, Response: &Response{Status: http.StatusNotImplemented}}
	}
}

func (w *Worker) route(ctx context.Context, action models.Action, tree *jsontree.Node) Outcome {
	maxDistance, ok := w.maxDistance[w.cost.Name]
	if !ok {
		return w.fail(ctx, action,
			fmt.Errorf("No maximum distance configured for costing '%s'", w.cost.Name))
	}
	if err := CheckConnectivity(ctx, w.log, w.locations, w.reader, maxDistance); err != nil {
		return w.fail(ctx, action, err)
	}

	// Every point must anchor for a connected path to exist; the first
	// failure aborts the whole request.
	results := make([]correlate.Result, 0, len(w.locations))
	for _, loc := range w.locations {
		result := correlate.Correlate(ctx, w.searcher, w.reader, w.log, loc, w.cost.Filter)
		if result.Failed() {
			w.metrics.CorrelationFailures.Inc()
			return w.fail(ctx, action, result.Err)
		}
		results = append(results, result)
	}

	message, err := ForwardMessage(tree, action, results)
	if err != nil {
		return w.fail(ctx, action, err)
	}
	w.phase = PhaseResponding
	return Outcome{Action: action, Forward: message}
}

func (w *Worker) locate(ctx context.Context, action models.Action, tree *jsontree.Node) Outcome {
	// Locate is a best-effort snap service: a failed location becomes a
	// per-entry error, the batch carries on.
	results := make([]correlate.Result, 0, len(w.locations))
	for _, loc := range w.locations {
		result := correlate.Correlate(ctx, w.searcher, w.reader, w.log, loc, w.cost.Filter)
		if result.Failed() {
			w.metrics.CorrelationFailures.Inc()
		}
		results = append(results, result)
	}

	jsonp, _ := tree.String("jsonp")
	body, err := ClientMessage(results, jsonp)
	if err != nil {
		return w.fail(ctx, action, err)
	}
	w.phase = PhaseResponding
	return Outcome{Action: action, Response: &Response{
		Status:      http.StatusOK,
		Body:        body,
		ContentType: JSONMime,
	}}
}

func (w *Worker) fail(ctx context.Context, action models.Action, err error) Outcome {
	w.phase = PhaseResponding
	status := StatusFor(err)
	w.log.InfoContext(ctx, "Request rejected", "action", action.String(), "status", status, "error", err)
	return Outcome{Action: action, Response: &Response{Status: status, Body: []byte(err.Error())}}
}

// cleanup is the finalizer phase: clear per-job state and keep the tile
// cache under budget. Trimming keeps hot tiles; it is not a full clear.
func (w *Worker) cleanup(ctx context.Context) {
	w.locations = nil
	w.cost = nil
	w.phase = PhaseIdle
	if w.reader.OverBudget() {
		w.reader.Trim()
		w.metrics.CacheTrims.Inc()
		w.log.DebugContext(ctx, "Trimmed tile cache after job")
	}
}

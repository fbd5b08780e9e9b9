package recs

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Runner.
const (
	// Metrics.
	RunsTotal         = metricz.Key("pipeline.runs.total")
	RunSuccessesTotal = metricz.Key("pipeline.runs.successes.total")
	RunFailuresTotal  = metricz.Key("pipeline.runs.failures.total")
	EarlyStopsTotal   = metricz.Key("pipeline.early_stops.total")
	UnitsPushed       = metricz.Key("pipeline.units.pushed")
	RunDurationMs     = metricz.Key("pipeline.run.duration.ms")

	// Spans.
	RunSpan     = tracez.Key("pipeline.run")
	CompileSpan = tracez.Key("pipeline.compile")

	// Tags.
	TagStageCount = tracez.Tag("pipeline.stage_count")
	TagResultKind = tracez.Tag("pipeline.result_kind")
	TagSuccess    = tracez.Tag("pipeline.success")
	TagError      = tracez.Tag("pipeline.error")

	// Hook event keys.
	EventRunComplete = hookz.Key("pipeline.run_complete")
	EventEarlyStop   = hookz.Key("pipeline.early_stop")
)

// RunEvent describes one pipeline run for hook subscribers. It is
// emitted when a run completes cleanly and, separately, when the head
// stage stops input early.
type RunEvent struct {
	Stages    int           // Number of stage calls in the pipeline
	Units     int           // Input units pushed before completion or stop
	Kind      ResultKind    // Which result policy branch applied
	Stopped   bool          // Whether input ended on a stop signal
	Duration  time.Duration // Time since the run started
	Timestamp time.Time     // When the event occurred
}

// ResultKind identifies which branch of the result-materialization
// policy a run took.
type ResultKind int

const (
	// ResultRecords means the run collected records into Result.Records.
	ResultRecords ResultKind = iota
	// ResultText means the run streamed text into an internal buffer,
	// returned as Result.Text.
	ResultText
	// ResultWriter means the run streamed to the caller's destination,
	// returned as Result.Writer.
	ResultWriter
)

// String returns the kind's name for span tags and debugging.
func (k ResultKind) String() string {
	switch k {
	case ResultText:
		return "text"
	case ResultWriter:
		return "writer"
	default:
		return "records"
	}
}

// Result is the materialized outcome of a run. Exactly one of the
// payload fields is populated, selected by Kind.
type Result struct {
	Kind    ResultKind
	Records []map[string]any
	Text    string
	Writer  io.Writer
}

// DefaultTextStage reports whether a stage name follows the
// text-producing naming convention of the stage catalog: a "to" prefix
// marks formatters that emit lines, with "topn" reserved as the one
// "to"-prefixed stage that produces records instead. Runners use this
// to infer result shape when the caller supplies no output; replace it
// with WithTextStage when embedding a catalog with different naming.
func DefaultTextStage(name Name) bool {
	return strings.HasPrefix(name, "to") && name != "topn"
}

// Runner compiles pipelines against a stage registry and drives inputs
// through them. It owns the host-function registry its compilations
// bridge through, so closures registered while building pipelines for
// one runner are invisible to every other runner.
//
// A runner is safe to reuse across runs; each run compiles a fresh
// chain and allocates fresh sinks unless the caller supplies a
// destination.
//
// # Observability
//
// Metrics:
//   - pipeline.runs.total: counter of runs started
//   - pipeline.runs.successes.total / pipeline.runs.failures.total
//   - pipeline.early_stops.total: counter of runs ended by a stop signal
//   - pipeline.units.pushed: gauge of units pushed by the last run
//   - pipeline.run.duration.ms: gauge of the last run's duration
//
// Traces:
//   - pipeline.run: parent span for a whole run
//   - pipeline.compile: child span for chain compilation
//
// Events (via hooks):
//   - pipeline.run_complete: fired after every run that returns no error
//   - pipeline.early_stop: fired additionally when the head stage signals stop
type Runner struct {
	stages  *Registry
	funcs   *FuncRegistry
	isText  func(Name) bool
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[RunEvent]
	clock   clockz.Clock
}

// Option configures a Runner at construction.
type Option func(*Runner)

// WithTextStage replaces the predicate deciding whether a pipeline's
// last stage produces text (result policy branch 2). The default is
// DefaultTextStage.
func WithTextStage(fn func(Name) bool) Option {
	return func(r *Runner) { r.isText = fn }
}

// WithClock sets the clock used for event timestamps and durations.
// Primarily for testing with a fake clock.
func WithClock(clock clockz.Clock) Option {
	return func(r *Runner) { r.clock = clock }
}

// NewRunner creates a runner over a stage registry.
func NewRunner(stages *Registry, opts ...Option) *Runner {
	metrics := metricz.New()
	metrics.Counter(RunsTotal)
	metrics.Counter(RunSuccessesTotal)
	metrics.Counter(RunFailuresTotal)
	metrics.Counter(EarlyStopsTotal)
	metrics.Gauge(UnitsPushed)
	metrics.Gauge(RunDurationMs)

	r := &Runner{
		stages:  stages,
		funcs:   NewFuncRegistry(),
		isText:  DefaultTextStage,
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[RunEvent](),
		clock:   clockz.RealClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Funcs returns the runner's host-function registry. Stage evaluators
// resolve bridged tokens against it, and callers may pre-register
// functions directly when they want the token rather than snippet text.
func (r *Runner) Funcs() *FuncRegistry {
	return r.funcs
}

// Metrics returns the runner's metrics registry for inspection.
func (r *Runner) Metrics() *metricz.Registry {
	return r.metrics
}

// Tracer returns the runner's tracer for span collection.
func (r *Runner) Tracer() *tracez.Tracer {
	return r.tracer
}

// OnRunComplete registers a handler fired after each clean run.
func (r *Runner) OnRunComplete(handler func(context.Context, RunEvent) error) error {
	_, err := r.hooks.Hook(EventRunComplete, handler)
	return err
}

// OnEarlyStop registers a handler fired when a run's input ends on a
// stop signal from the head stage.
func (r *Runner) OnEarlyStop(handler func(context.Context, RunEvent) error) error {
	_, err := r.hooks.Hook(EventEarlyStop, handler)
	return err
}

// Close releases the runner's hook resources.
func (r *Runner) Close() {
	r.hooks.Close()
}

// RunOption configures a single run.
type RunOption func(*runConfig)

type runConfig struct {
	output io.Writer
}

// WithOutput streams the run's output to a caller-owned destination.
// The run then returns the destination itself irrespective of the
// pipeline's last stage, and the destination is never closed.
func WithOutput(w io.Writer) RunOption {
	return func(c *runConfig) { c.output = w }
}

// Run compiles the pipeline, drives the input through it, and
// materializes a result.
//
// The result shape follows a three-way policy so the same builder API
// serves both "give me formatted text" and "give me records to keep
// composing" without the caller declaring intent:
//
//  1. WithOutput was given: stream lines to that destination and return
//     it (Kind ResultWriter).
//  2. The last stage's name satisfies the text predicate: stream lines
//     into an internal buffer, flush it on every exit path, and return
//     the accumulated text (Kind ResultText).
//  3. Otherwise: collect records as plain mappings (Kind ResultRecords).
//
// The input may be nil when the head stage is self-generating; a nil
// input with a head stage that wants input is an InputRequiredError.
// Supplying input to a self-generating head is not an error, but the
// input is not fed to it.
//
// All failures abort the run synchronously: compilation errors, accept
// errors from any stage, input read errors, and flush errors all
// surface to the caller undowngraded. Finish is invoked on the head
// exactly once after clean exhaustion or an early stop, and is not
// guaranteed after a mid-stream failure.
func (r *Runner) Run(ctx context.Context, p Pipeline, in Input, opts ...RunOption) (result *Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	r.metrics.Counter(RunsTotal).Inc()
	start := r.clock.Now()

	ctx, span := r.tracer.StartSpan(ctx, RunSpan)
	span.SetTag(TagStageCount, strconv.Itoa(p.Len()))
	defer func() {
		elapsed := r.clock.Now().Sub(start)
		r.metrics.Gauge(RunDurationMs).Set(float64(elapsed.Milliseconds()))
		if err == nil {
			span.SetTag(TagSuccess, "true")
			r.metrics.Counter(RunSuccessesTotal).Inc()
		} else {
			span.SetTag(TagSuccess, "false")
			span.SetTag(TagError, err.Error())
			r.metrics.Counter(RunFailuresTotal).Inc()
		}
		span.Finish()
	}()

	// Select the sink per the result policy.
	var (
		kind    ResultKind
		sink    Consumer
		records *RecordSink
		buf     *strings.Builder
		bw      *bufio.Writer
	)
	switch {
	case cfg.output != nil:
		kind = ResultWriter
		sink = NewLineSink(cfg.output)
	case r.lastStageProducesText(p):
		kind = ResultText
		buf = &strings.Builder{}
		bw = bufio.NewWriter(buf)
		sink = NewLineSink(bw)
	default:
		kind = ResultRecords
		records = NewRecordSink()
		sink = records
	}
	span.SetTag(TagResultKind, kind.String())

	_, compileSpan := r.tracer.StartSpan(ctx, CompileSpan)
	ch, cerr := compile(p, r.stages, Env{Funcs: r.funcs}, sink)
	compileSpan.Finish()
	if cerr != nil {
		return nil, cerr
	}
	if bw != nil {
		// The buffer is runner-owned; make sure it drains even when a
		// stage fails mid-stream.
		defer bw.Flush() //nolint:errcheck
	}

	units, stopped, derr := r.feed(ctx, ch, in)
	r.metrics.Gauge(UnitsPushed).Set(float64(units))
	if derr != nil {
		return nil, derr
	}

	// Finalize exactly once, after clean exhaustion or an early stop,
	// whether or not the head wanted input.
	if ch.head != nil {
		if ferr := ch.head.Finish(ctx); ferr != nil {
			return nil, ferr
		}
	}

	if bw != nil {
		if ferr := bw.Flush(); ferr != nil {
			return nil, &IOError{Op: "flush", Target: "text buffer", Err: ferr}
		}
	}

	now := r.clock.Now()
	event := RunEvent{
		Stages:    p.Len(),
		Units:     units,
		Kind:      kind,
		Stopped:   stopped,
		Duration:  now.Sub(start),
		Timestamp: now,
	}
	if stopped {
		r.metrics.Counter(EarlyStopsTotal).Inc()
		_ = r.hooks.Emit(ctx, EventEarlyStop, event) //nolint:errcheck
	}
	_ = r.hooks.Emit(ctx, EventRunComplete, event) //nolint:errcheck

	switch kind {
	case ResultWriter:
		return &Result{Kind: kind, Writer: cfg.output}, nil
	case ResultText:
		return &Result{Kind: kind, Text: buf.String()}, nil
	default:
		return &Result{Kind: kind, Records: records.Records}, nil
	}
}

// feed drives the input into the chain, honoring the head stage's
// input appetite.
func (r *Runner) feed(ctx context.Context, ch *chain, in Input) (int, bool, error) {
	if ch.head != nil && !ch.head.stage.WantsInput() {
		// Self-generating source: any supplied input is ignored.
		return 0, false, nil
	}
	if in == nil {
		if ch.head != nil {
			return 0, false, &InputRequiredError{Stage: ch.head.name}
		}
		return 0, false, nil
	}
	return in.drive(ctx, ch.consumer())
}

// lastStageProducesText applies the text predicate to the pipeline's
// final stage call.
func (r *Runner) lastStageProducesText(p Pipeline) bool {
	last, ok := p.last()
	return ok && r.isText(last.Name)
}

package core

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/alert-correlator/catalog"
	"github.com/signalsfoundry/alert-correlator/internal/logging"
)

// Stage names reported to listeners and metrics.
const (
	StageBuildGraph = "build_graph"
	StageResolve    = "resolve"
	StageAggregate  = "aggregate"
)

// PipelineRecorder receives per-run pipeline statistics. Implemented by the
// observability collector; a nil recorder disables recording.
type PipelineRecorder interface {
	ObservePipelineStage(stage string, seconds float64)
	SetPipelineCounts(alerts, groups, conflicts int)
}

// Result holds the output of one correlation run over a catalog snapshot.
type Result struct {
	// Graph is the raw touching relation, before resolution.
	Graph Graph
	// Resolved is the conflict-free multiplet mapping.
	Resolved Graph
	// Positions holds the combined solution per non-empty group.
	Positions map[int]GroupPosition
	// Conflicts counts alerts whose group was cleared during resolution.
	Conflicts int
}

// Correlator runs the full pipeline: overlap graph, resolution, weighted
// aggregation. Each run works on a catalog snapshot and is deterministic for
// a fixed catalog.
type Correlator struct {
	Catalog *catalog.Catalog
	Overlap *OverlapService

	// Metrics is optional; when set, stage durations and result counts
	// are recorded after every run.
	Metrics PipelineRecorder

	log            logging.Logger
	stageListeners []func(stage string)
}

func NewCorrelator(cat *catalog.Catalog, log logging.Logger) *Correlator {
	if log == nil {
		log = logging.Noop()
	}
	return &Correlator{
		Catalog: cat,
		Overlap: NewOverlapService(),
		log:     log,
	}
}

// RegisterStageListener registers a callback invoked after each completed
// pipeline stage.
func (c *Correlator) RegisterStageListener(fn func(stage string)) {
	c.stageListeners = append(c.stageListeners, fn)
}

// Run executes the pipeline once and returns the result. The context is
// used for tracing only; the computation itself is a single in-memory pass
// with no blocking operations.
func (c *Correlator) Run(ctx context.Context) (*Result, error) {
	tracer := otel.Tracer("alert-correlator/core")
	ctx, span := tracer.Start(ctx, "correlate")
	defer span.End()

	alerts := c.Catalog.Snapshot()
	span.SetAttributes(attribute.Int("catalog.alerts", len(alerts)))

	graph, err := c.timedStage(ctx, tracer, StageBuildGraph, func() (Graph, error) {
		return c.Overlap.BuildGraph(alerts)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	resolved, _ := c.timedStage(ctx, tracer, StageResolve, func() (Graph, error) {
		return Resolve(graph), nil
	})

	var positions map[int]GroupPosition
	_, err = c.timedStage(ctx, tracer, StageAggregate, func() (Graph, error) {
		positions, err = Aggregate(resolved, alerts)
		return nil, err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	conflicts := 0
	for idx, members := range graph {
		if len(members) > 0 && len(resolved[idx]) == 0 {
			conflicts++
		}
	}

	if c.Metrics != nil {
		c.Metrics.SetPipelineCounts(len(alerts), len(positions), conflicts)
	}
	c.log.Info(ctx, "correlation run complete",
		logging.Int("alerts", len(alerts)),
		logging.Int("groups", len(positions)),
		logging.Int("conflicts", conflicts),
	)

	return &Result{
		Graph:     graph,
		Resolved:  resolved,
		Positions: positions,
		Conflicts: conflicts,
	}, nil
}

func (c *Correlator) timedStage(ctx context.Context, tracer trace.Tracer, stage string, fn func() (Graph, error)) (Graph, error) {
	_, span := tracer.Start(ctx, stage)
	defer span.End()

	start := time.Now()
	out, err := fn()
	elapsed := time.Since(start).Seconds()

	if err != nil {
		span.RecordError(err)
	}
	if c.Metrics != nil {
		c.Metrics.ObservePipelineStage(stage, elapsed)
	}
	for _, fn := range c.stageListeners {
		fn(stage)
	}
	return out, err
}

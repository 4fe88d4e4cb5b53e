// Package scheduler walks the dependency graph in waves, dispatching ready
// artifact builds to a bounded worker pool and propagating dependency
// failures to dependents without invoking their build.
package scheduler

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/forgecraft/recipeforge/internal/artifact"
	"github.com/forgecraft/recipeforge/internal/dag"
	"github.com/forgecraft/recipeforge/internal/log"
	"github.com/forgecraft/recipeforge/internal/rferrors"
)

// Builder is anything capable of building one artifact id, returning a
// typed *rferrors.Error (or nil) from the Scheduler's point of view.
type Builder interface {
	// BuildFetch builds the Fetch artifact f.
	BuildFetch(ctx context.Context, f *artifact.Fetch) error
	// BuildRecipe builds the Recipe artifact r.
	BuildRecipe(ctx context.Context, r *artifact.Recipe) error
}

// Config configures a Scheduler run.
type Config struct {
	NumJobs int // bounds concurrent build invocations; dispatched through one shared pool
}

// FailureCause records why an artifact ended up in the failed set.
type FailureCause struct {
	ArtifactID string
	Category   rferrors.Category
	Message    string
}

// Report is the scheduler's final accounting of a build run.
type Report struct {
	Failed []FailureCause
}

// Scheduler walks a prepared dependency graph, dispatching ready artifacts
// to Builder through a pool bounded by Config.NumJobs.
type Scheduler struct {
	graph    *dag.Graph
	registry *artifact.Registry
	builder  Builder
	cfg      Config
	logger   log.Logger
}

// New returns a Scheduler over graph and registry, dispatching builds to
// builder. A nil logger falls back to log.Default().
func New(graph *dag.Graph, registry *artifact.Registry, builder Builder, cfg Config, logger log.Logger) *Scheduler {
	if cfg.NumJobs < 1 {
		cfg.NumJobs = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{graph: graph, registry: registry, builder: builder, cfg: cfg, logger: logger}
}

// Run walks the graph to completion, returning the final failure report.
// The graph must already have had Prepare called successfully.
//
// Only this coordinator goroutine mutates the graph and the failed set;
// workers receive an artifact id, build it, and hand back an error. A wave's
// results are applied only after the whole wave completes, so an artifact's
// completion is always visible before any dependent becomes ready.
func (s *Scheduler) Run(ctx context.Context) (*Report, error) {
	failed := make(map[string]FailureCause)

	for s.graph.IsActive() {
		wave := s.graph.Ready()
		if len(wave) == 0 {
			// Prepare rejects cycles, so an active graph with nothing ready
			// means the graph was mutated behind the scheduler's back.
			return nil, rferrors.New(rferrors.FatalConfig, "", "dependency graph stalled with unbuilt artifacts")
		}

		// Dependency-failure skips are decided here, before dispatch: a
		// recipe with a failed dependency never reaches the worker pool.
		var dispatch []string
		for _, id := range wave {
			if s.hasFailedDependency(id, failed) {
				s.logger.ForArtifact(id).Warn("skipping recipe: dependency failed")
				failed[id] = FailureCause{
					ArtifactID: id,
					Category:   rferrors.DependencyFailed,
					Message:    "a dependency failed to build",
				}
				s.graph.Done(id)
				continue
			}
			dispatch = append(dispatch, id)
		}

		results := make([]error, len(dispatch))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.NumJobs)
		for i, id := range dispatch {
			i, id := i, id
			g.Go(func() error {
				results[i] = s.build(gctx, id)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i, id := range dispatch {
			if err := results[i]; err != nil {
				cause := s.classifyFailure(id, err)
				if cause.Category == rferrors.FatalConfig {
					// Structural problems (a dependency id missing from the
					// registry, an unregistered recipe kind) are not
					// per-artifact failures: the whole run aborts.
					return nil, err
				}
				failed[id] = cause
			}
			s.graph.Done(id)
		}
	}

	report := &Report{}
	for _, cause := range failed {
		report.Failed = append(report.Failed, cause)
	}
	return report, nil
}

// hasFailedDependency reports whether id is a Recipe with at least one
// dependency already in the failed set. Fetch artifacts have no
// dependencies and are never skipped this way.
func (s *Scheduler) hasFailedDependency(id string, failed map[string]FailureCause) bool {
	a, ok := s.registry.Get(id)
	if !ok {
		return false
	}
	rec, isRecipe := a.(*artifact.Recipe)
	if !isRecipe {
		return false
	}
	for _, dep := range rec.Dependencies {
		if _, ok := failed[dep.ArtifactID()]; ok {
			return true
		}
	}
	return false
}

// build invokes the Builder for one artifact id. It runs on a worker
// goroutine and touches neither the graph nor the failed set.
func (s *Scheduler) build(ctx context.Context, id string) error {
	a, ok := s.registry.Get(id)
	if !ok {
		return nil
	}

	switch art := a.(type) {
	case *artifact.Recipe:
		return s.builder.BuildRecipe(ctx, art)
	case *artifact.Fetch:
		return s.builder.BuildFetch(ctx, art)
	default:
		return nil
	}
}

func (s *Scheduler) classifyFailure(id string, err error) FailureCause {
	cause := FailureCause{ArtifactID: id, Category: rferrors.BuildUnclassified, Message: err.Error()}

	var rfErr *rferrors.Error
	if errors.As(err, &rfErr) {
		cause.Category = rfErr.Category
		cause.Message = rfErr.Message
	}

	s.logger.ForArtifact(id).Error("artifact build failed", "category", cause.Category.String(), "err", err)
	return cause
}

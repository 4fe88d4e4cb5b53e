// Package orchestrator wires the manifest loader, dependency graph,
// fetch cache, recipe builder, and scheduler into a single build run. It is
// the glue a CLI wrapper (or a test) drives; it contains no flag parsing or
// process-exit concerns of its own.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/forgecraft/recipeforge/internal/artifact"
	"github.com/forgecraft/recipeforge/internal/dag"
	"github.com/forgecraft/recipeforge/internal/fetchcache"
	"github.com/forgecraft/recipeforge/internal/log"
	"github.com/forgecraft/recipeforge/internal/manifest"
	"github.com/forgecraft/recipeforge/internal/recipebuild"
	"github.com/forgecraft/recipeforge/internal/rferrors"
	"github.com/forgecraft/recipeforge/internal/sandbox"
	"github.com/forgecraft/recipeforge/internal/scheduler"
)

// Config configures a single build run over a recipes root.
type Config struct {
	RecipesRoot string
	BuildRoot   string

	NumJobs      int
	Override     bool
	MemoryLimit  string // e.g. "1g", passed through to the sandbox
	FetchTimeout time.Duration

	// Runtime overrides automatic container-runtime detection. Tests pass a
	// sandbox.FakeRuntime here; a nil Runtime triggers real detection.
	Runtime sandbox.Runtime

	Logger log.Logger
}

// Result is the outcome of a completed build run.
type Result struct {
	Registry *artifact.Registry
	Report   *scheduler.Report
}

// Run loads every recipe under cfg.RecipesRoot, builds the dependency
// graph, and drives the scheduler to completion. A non-nil error here is
// always a fatal_config condition; per-artifact failures are instead
// reported in Result.Report and never fail the run itself.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	reg := artifact.NewRegistry()
	loader := manifest.New(reg, logger)
	if err := loader.Load(cfg.RecipesRoot); err != nil {
		return nil, err
	}

	graph := dag.NewGraph()
	for _, id := range reg.IDs() {
		graph.AddNode(id)
	}
	for _, rec := range reg.Recipes() {
		for _, dep := range rec.Dependencies {
			graph.AddEdge(rec.ID(), dep.ArtifactID())
		}
	}
	if err := graph.Prepare(); err != nil {
		return nil, rferrors.Wrap(rferrors.FatalConfig, "", "dependency graph is not acyclic", err)
	}

	runtime := cfg.Runtime
	if runtime == nil {
		detected, err := sandbox.NewRuntimeDetector().Detect(ctx)
		if err != nil {
			return nil, rferrors.Wrap(rferrors.FatalConfig, "", "no sandbox container runtime available", err)
		}
		runtime = detected
	}

	cache := fetchcache.New(cfg.FetchTimeout, logger)
	recipeBuilder := recipebuild.New(reg, sandbox.NewRunner(runtime), cfg.MemoryLimit, logger)

	b := &buildAdapter{
		cache:         cache,
		recipeBuilder: recipeBuilder,
		recipesRoot:   cfg.RecipesRoot,
		buildRoot:     cfg.BuildRoot,
		override:      cfg.Override,
	}

	numJobs := cfg.NumJobs
	if numJobs < 1 {
		numJobs = 1
	}

	sched := scheduler.New(graph, reg, b, scheduler.Config{NumJobs: numJobs}, logger)
	report, err := sched.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduler run failed: %w", err)
	}

	return &Result{Registry: reg, Report: report}, nil
}

// buildAdapter closes the per-run configuration (roots, override) over the
// scheduler.Builder interface, which only knows artifact ids and builders.
type buildAdapter struct {
	cache         *fetchcache.Cache
	recipeBuilder *recipebuild.Builder
	recipesRoot   string
	buildRoot     string
	override      bool
}

func (b *buildAdapter) BuildFetch(ctx context.Context, f *artifact.Fetch) error {
	return b.cache.Build(ctx, f, b.buildRoot, b.override)
}

func (b *buildAdapter) BuildRecipe(ctx context.Context, r *artifact.Recipe) error {
	return b.recipeBuilder.Build(ctx, r, b.recipesRoot, b.buildRoot, b.override)
}

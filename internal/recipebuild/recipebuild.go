// Package recipebuild implements the python-kind Recipe artifact's build
// orchestration: change detection, the source-to-build copy, and dispatch
// into the sandbox.
package recipebuild

import (
	"context"
	"os"

	"github.com/forgecraft/recipeforge/internal/artifact"
	"github.com/forgecraft/recipeforge/internal/changedetect"
	"github.com/forgecraft/recipeforge/internal/log"
	"github.com/forgecraft/recipeforge/internal/rferrors"
	"github.com/forgecraft/recipeforge/internal/sandbox"
)

// Builder registry, open over Kind so future recipe kinds can register a
// builder without this package knowing about them.
type builderFunc func(ctx context.Context, b *Builder, rec *artifact.Recipe, recipesRoot, buildRoot string, override bool) error

var builders = map[artifact.Kind]builderFunc{
	artifact.KindPython: buildPython,
}

// Builder drives a Recipe artifact's build through the sandbox.
type Builder struct {
	registry    *artifact.Registry
	runner      *sandbox.Runner
	logger      log.Logger
	memoryLimit string // e.g. "1g", passed through to the sandbox
}

// New returns a Builder that resolves dependencies against reg and dispatches
// generation scripts through runner.
func New(reg *artifact.Registry, runner *sandbox.Runner, memoryLimit string, logger log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{registry: reg, runner: runner, memoryLimit: memoryLimit, logger: logger}
}

// Build builds rec per its RecipeKind's registered builder function. An
// unregistered kind is a manifest-schema/type-registry mismatch and is
// reported as fatal, matching the same inconsistency class the manifest
// loader reports for unknown dependency types.
func (b *Builder) Build(ctx context.Context, rec *artifact.Recipe, recipesRoot, buildRoot string, override bool) error {
	fn, ok := builders[rec.RecipeKind]
	if !ok {
		return rferrors.New(rferrors.FatalConfig, rec.ID(), "no builder registered for recipe kind "+string(rec.RecipeKind))
	}
	return fn(ctx, b, rec, recipesRoot, buildRoot, override)
}

// buildPython implements the python-kind build steps from the recipe
// artifact's build algorithm: change detection, copy, and sandbox dispatch.
func buildPython(ctx context.Context, b *Builder, rec *artifact.Recipe, recipesRoot, buildRoot string, override bool) error {
	sourcePath := rec.SourcePath(recipesRoot)
	buildPath := rec.BuildPath(buildRoot)

	if _, err := os.Stat(buildPath); err == nil {
		changed, err := changedetect.Changed(sourcePath, buildPath)
		if err != nil {
			return rferrors.Wrap(rferrors.BuildUnclassified, rec.ID(), "change detection failed", err)
		}
		if !changed && !override {
			b.logger.ForArtifact(rec.ID()).Info("unchanged, skipping build")
			return nil
		}
		if err := os.RemoveAll(buildPath); err != nil {
			return rferrors.Wrap(rferrors.BuildUnclassified, rec.ID(), "failed to remove stale build directory", err)
		}
	}

	if err := copyTree(sourcePath, buildPath); err != nil {
		return rferrors.Wrap(rferrors.BuildUnclassified, rec.ID(), "failed to copy recipe source into build directory", err)
	}

	dataPath := rec.DataPath(buildRoot)
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return rferrors.Wrap(rferrors.BuildUnclassified, rec.ID(), "failed to create data output directory", err)
	}

	spec := sandbox.BuildSpec{
		RecipePath:  buildPath,
		DataPath:    dataPath,
		MemoryLimit: b.memoryLimit,
	}

	for _, dep := range rec.Dependencies {
		artifactID := dep.ArtifactID()
		depArtifact, ok := b.registry.Get(artifactID)
		if !ok {
			return rferrors.New(rferrors.FatalConfig, rec.ID(), "dependency "+artifactID+" not present in registry")
		}
		spec.Dependencies = append(spec.Dependencies, sandbox.DependencyMount{
			MountSubpath: dep.MountSubpath(),
			SourcePath:   depArtifact.BuildPath(buildRoot),
		})
	}

	// On failure, buildPath is intentionally left on disk: the next run's
	// change detection will see it, find no difference against source, and
	// retry (since the caller controls override independently of this
	// failure).
	return b.runner.Run(ctx, rec.ID(), spec)
}

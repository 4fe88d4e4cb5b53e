package sandbox

import (
	"context"
	"fmt"

	"github.com/forgecraft/recipeforge/internal/rferrors"
)

// DependencyMount describes one dependency's read-only mount, relative to
// /app/dependencies.
type DependencyMount struct {
	MountSubpath string // relative to /app/dependencies
	SourcePath   string // host path to the dependency artifact's build output
}

// BuildSpec describes one recipe build's sandbox invocation.
type BuildSpec struct {
	RecipePath   string // host path mounted read-only at /app/recipe
	DataPath     string // host path mounted read-write at /app/data
	Dependencies []DependencyMount
	MemoryLimit  string // e.g. "1g"
}

// Runner dispatches BuildSpecs to a Runtime.
type Runner struct {
	runtime Runtime
}

// NewRunner returns a Runner that dispatches through runtime.
func NewRunner(runtime Runtime) *Runner {
	return &Runner{runtime: runtime}
}

// Run executes spec's generation script inside the sandbox and classifies
// the result per recipeforge's exit-code contract:
//
//	0   -> success
//	1   -> build_script_failed, carrying captured stderr
//	137 -> build_oom
//	*   -> build_unclassified
func (r *Runner) Run(ctx context.Context, artifactID string, spec BuildSpec) error {
	opts := RunOptions{
		Image:   Image,
		Command: []string{"python3", "/app/recipe/generate.py"},
		WorkDir: "/app",
		Network: "none",
		Limits: ResourceLimits{
			Memory: spec.MemoryLimit,
		},
		Mounts: []Mount{
			{Source: spec.RecipePath, Target: "/app/recipe", ReadOnly: true},
			{Source: spec.DataPath, Target: "/app/data", ReadOnly: false},
		},
	}

	for _, dep := range spec.Dependencies {
		opts.Mounts = append(opts.Mounts, Mount{
			Source:   dep.SourcePath,
			Target:   "/app/dependencies/" + dep.MountSubpath,
			ReadOnly: true,
		})
	}

	result, err := r.runtime.Run(ctx, opts)
	if err != nil {
		return rferrors.Wrap(rferrors.BuildUnclassified, artifactID, "sandbox invocation failed", err)
	}

	return classifyExit(artifactID, result)
}

// classifyExit maps a RunResult's exit code to recipeforge's typed error
// taxonomy, per the sandbox's exit-classification contract.
func classifyExit(artifactID string, result *RunResult) error {
	switch result.ExitCode {
	case 0:
		return nil
	case 1:
		return rferrors.New(rferrors.BuildScriptFailed, artifactID, result.Stderr)
	case 137:
		return rferrors.New(rferrors.BuildOOM, artifactID, "sandbox killed: memory limit exceeded")
	default:
		return rferrors.New(rferrors.BuildUnclassified, artifactID,
			fmt.Sprintf("sandbox exited with unexpected status %d", result.ExitCode))
	}
}

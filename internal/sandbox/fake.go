package sandbox

import "context"

// FakeRuntime is a test double for Runtime that records every call it
// receives and returns caller-configured results, avoiding any dependency
// on a real container runtime being installed.
type FakeRuntime struct {
	RuntimeName string
	Rootless    bool

	// Result is returned from every Run call unless ResultFunc is set.
	Result *RunResult
	Err    error
	// ResultFunc, when set, overrides Result/Err per call.
	ResultFunc func(opts RunOptions) (*RunResult, error)

	Calls []RunOptions
}

// NewFakeRuntime returns a FakeRuntime that reports success (exit 0) by default.
func NewFakeRuntime() *FakeRuntime {
	return &FakeRuntime{
		RuntimeName: "fake",
		Result:      &RunResult{ExitCode: 0},
	}
}

func (f *FakeRuntime) Name() string     { return f.RuntimeName }
func (f *FakeRuntime) IsRootless() bool { return f.Rootless }

func (f *FakeRuntime) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	f.Calls = append(f.Calls, opts)
	if f.ResultFunc != nil {
		return f.ResultFunc(opts)
	}
	return f.Result, f.Err
}

// CallCount returns the number of times Run was invoked.
func (f *FakeRuntime) CallCount() int {
	return len(f.Calls)
}

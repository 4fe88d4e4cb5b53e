package main

// Exit codes for the recipeforge CLI. A completed run that merely recorded
// per-artifact failures still exits 0 (ExitSuccess); only a structural or
// configuration problem that aborted the run uses ExitConfig.
const (
	// ExitSuccess indicates the run completed, with or without recorded
	// per-artifact failures.
	ExitSuccess = 0

	// ExitUsage indicates invalid command-line arguments.
	ExitUsage = 2

	// ExitConfig is the fatal_config exit code: the sandbox image/runtime
	// could not be prepared, the recipes root could not be read, or the
	// manifest schemas and the runtime type registry disagree. 78 matches
	// sysexits.h's EX_CONFIG; Go has no built-in equivalent constant.
	ExitConfig = 78
)

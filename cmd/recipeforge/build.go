package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgecraft/recipeforge/internal/config"
	"github.com/forgecraft/recipeforge/internal/log"
	"github.com/forgecraft/recipeforge/internal/orchestrator"
	"github.com/forgecraft/recipeforge/internal/scheduler"
)

var (
	buildFolderFlag string
	buildFolderAlt  string // --bf alias; pflag shorthands are single characters, so this is a second long flag
	overrideFlag    bool
	numJobsFlag     int
)

var buildCmd = &cobra.Command{
	Use:   "build <recipes_folder>",
	Short: "Build every recipe under recipes_folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildFolderFlag, "build-folder", config.DefaultBuildFolder, "build output folder")
	buildCmd.Flags().StringVar(&buildFolderAlt, "bf", "", "alias for --build-folder")
	buildCmd.Flags().BoolVarP(&overrideFlag, "override", "f", false, "force rebuild, bypassing change detection and the fetch cache")
	buildCmd.Flags().IntVarP(&numJobsFlag, "num-jobs", "j", config.DefaultNumJobs, "number of recipes to build concurrently")
}

func runBuild(cmd *cobra.Command, args []string) error {
	recipesRoot := args[0]

	buildFolder := buildFolderFlag
	if buildFolderAlt != "" {
		buildFolder = buildFolderAlt
	} else if envFolder := os.Getenv(config.EnvBuildFolder); envFolder != "" && !cmd.Flags().Changed("build-folder") {
		buildFolder = envFolder
	}

	numJobs := numJobsFlag
	if !cmd.Flags().Changed("num-jobs") {
		numJobs = config.GetNumJobs()
	}
	if numJobs < 1 {
		return fmt.Errorf("--num-jobs must be >= 1, got %d", numJobs)
	}

	memoryLimitMB := config.GetMemoryLimitMB()

	result, err := orchestrator.Run(cmd.Context(), orchestrator.Config{
		RecipesRoot:  recipesRoot,
		BuildRoot:    buildFolder,
		NumJobs:      numJobs,
		Override:     overrideFlag,
		MemoryLimit:  fmt.Sprintf("%dm", memoryLimitMB),
		FetchTimeout: config.GetFetchTimeout(),
		Logger:       log.Default(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "recipeforge: configuration error: %v\n", err)
		os.Exit(ExitConfig)
	}

	// Partial failures do not fail the run itself: the printed report is
	// the user-facing signal, the exit code stays 0.
	printReport(result.Report)
	return nil
}

// printReport prints one line per failed artifact with its failure category,
// the warning report for a run that completed with some recipes failed.
func printReport(report *scheduler.Report) {
	if len(report.Failed) == 0 {
		fmt.Println("build complete: all artifacts succeeded")
		return
	}

	fmt.Printf("build complete with %d failed artifact(s):\n", len(report.Failed))
	for _, f := range report.Failed {
		fmt.Printf("  %s [%s]: %s\n", f.ArtifactID, f.Category.String(), f.Message)
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kompline/kompline/internal/diff"
	"github.com/kompline/kompline/internal/model"
	"github.com/kompline/kompline/internal/series"
)

var flagHistoryDepth int

var diffCmd = &cobra.Command{
	Use:   "diff <project-a> <project-b>",
	Short: "Compare the libraries of two project versions",
	Long: `Compare two projects. A version bump of the same component counts as a
change, not as a removal plus an addition; genuinely new and genuinely
removed components are listed separately.

Example:
  kompline diff shop/1.0 shop/2.0`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

var historyCmd = &cobra.Command{
	Use:   "history <project>",
	Short: "Show risk counts across the project's version chain",
	Long: `Walk the project's predecessor chain and print how many libraries of each
risk level every version carried. Zero counts are printed too; a risk level
disappearing is as much a signal as one appearing.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryDepth, "depth", series.DefaultMaxDepth, "How many versions to walk back")
	rootCmd.AddCommand(diffCmd, historyCmd)
}

func loadProjectWithLibraries(ctx context.Context, a *app, ref string) (*model.Project, error) {
	project, err := resolveProjectRef(ctx, a, ref)
	if err != nil {
		return nil, err
	}
	if err := loadProjectLibraries(ctx, a, project); err != nil {
		return nil, err
	}
	return project, nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	pa, err := loadProjectWithLibraries(ctx, a, args[0])
	if err != nil {
		return err
	}
	pb, err := loadProjectWithLibraries(ctx, a, args[1])
	if err != nil {
		return err
	}

	result := diff.Compare(pa, pb)
	printBucket("Unchanged components", result.Same)
	printBucket(fmt.Sprintf("Only in %s/%s", pa.Name, pa.Version), result.AddedToA)
	printBucket(fmt.Sprintf("Only in %s/%s", pb.Name, pb.Version), result.AddedToB)
	printBucket("New components in "+pa.Version, result.NewOnlyInA)
	printBucket("New components in "+pb.Version, result.NewOnlyInB)

	changes := diff.VersionChanges(pa, pb)
	if len(changes) > 0 {
		fmt.Println("Version changes:")
		for _, pair := range changes {
			fmt.Printf("  %s: %s -> %s\n", pair[0].Label(), pair[0].Version, pair[1].Version)
		}
	}
	return nil
}

func printBucket(title string, libs []*model.Library) {
	if len(libs) == 0 {
		return
	}
	fmt.Printf("%s (%d):\n", title, len(libs))
	for _, lib := range libs {
		fmt.Printf("  %s %s\n", lib.Label(), lib.Version)
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	project, err := loadProjectWithLibraries(ctx, a, args[0])
	if err != nil {
		return err
	}

	// The series builder walks in-memory pointers; load the chain first.
	current := project
	for depth := 1; current.PreviousProjectID != nil && depth < flagHistoryDepth; depth++ {
		prev, err := a.projects.Get(ctx, *current.PreviousProjectID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: predecessor of %s/%s not loadable: %v\n",
				current.Name, current.Version, err)
			break
		}
		if err := loadProjectLibraries(ctx, a, prev); err != nil {
			return err
		}
		current.PreviousProject = prev
		current = prev
	}

	builder := series.Builder{Ladder: a.registry.Ladder(), MaxDepth: flagHistoryDepth}
	history := builder.Build(project)

	fmt.Printf("Version\tLibraries")
	names := make([]string, 0, len(a.registry.Ladder()))
	for _, risk := range a.registry.Ladder() {
		names = append(names, risk.Name)
	}
	for _, name := range names {
		fmt.Printf("\t%s", name)
	}
	fmt.Println()
	for i, version := range history.Versions {
		fmt.Printf("%s\t%d", version, history.LibraryCount[i])
		for _, name := range names {
			fmt.Printf("\t%d", history.RiskCounts[name][i])
		}
		fmt.Println()
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kompline/kompline/internal/copyright"
	"github.com/kompline/kompline/internal/fetch"
	"github.com/kompline/kompline/internal/model"
)

var (
	flagResolveProject string
	flagResolveFetch   bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Re-run license resolution over a project's libraries",
	Long: `Re-run license parsing, resolution, risk derivation and the conflict scan
over every library of a project. With --fetch the declared license URLs are
fetched and classified first, filling the licenses-of-files set.

Use after editing license declarations or to pick up catalog changes.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&flagResolveProject, "project", "", "Target project (name/version or id)")
	resolveCmd.Flags().BoolVar(&flagResolveFetch, "fetch", false, "Fetch and classify license texts from the declared urls")
	resolveCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	project, err := resolveProjectRef(ctx, a, flagResolveProject)
	if err != nil {
		return err
	}
	libs, err := a.libraries.ForProject(ctx, project.ID)
	if err != nil {
		return err
	}

	enricher := &fetch.Enricher{Client: fetch.NewClient(), Registry: a.registry}

	conflicts := 0
	for _, lib := range libs {
		if flagResolveFetch {
			if err := enricher.EnrichLicense(ctx, lib); err != nil {
				fmt.Fprintf(os.Stderr, "warning: fetching license of %s: %v\n", lib.Label(), err)
			}
			if lib.Copyright == "" && lib.LicenseText != "" {
				copyright.Apply(lib, copyright.FromLicenseText(lib.LicenseText))
			}
		}
		a.resolver.Resolve(lib)
		a.risk.Apply(lib)
		if a.matrix.CheckLibrary(lib) {
			conflicts++
		}
		if err := a.libraries.Update(ctx, lib); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Resolved %d libraries, %d with new conflict findings\n", len(libs), conflicts)
	if conflicts > 0 {
		printConflicts(libs)
	}
	return nil
}

func printConflicts(libs []*model.Library) {
	for _, lib := range libs {
		for _, e := range lib.ErrorLog {
			if e.Issue == model.IssueLicenseConflict {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", lib.Label(), e.Message)
			}
		}
	}
}

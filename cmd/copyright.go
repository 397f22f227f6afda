package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kompline/kompline/internal/copyright"
	"github.com/kompline/kompline/internal/fetch"
	"github.com/kompline/kompline/internal/model"
)

var flagCopyrightProject string

var copyrightCmd = &cobra.Command{
	Use:   "copyright",
	Short: "Extract copyright statements for a project's libraries",
	Long: `Download each library's source archive and extract copyright statements
from its license, notice and readme files. The full and simple extraction
results are reconciled; libraries without any statement fall back to their
stored license text and, failing that, get the no-copyright sentinel and a
HIGH review finding.

Libraries without a usable source url are skipped.`,
	RunE: runCopyright,
}

func init() {
	copyrightCmd.Flags().StringVar(&flagCopyrightProject, "project", "", "Target project (name/version or id)")
	copyrightCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(copyrightCmd)
}

func runCopyright(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	project, err := resolveProjectRef(ctx, a, flagCopyrightProject)
	if err != nil {
		return err
	}
	libs, err := a.libraries.ForProject(ctx, project.ID)
	if err != nil {
		return err
	}

	client := fetch.NewClient()
	extracted, skipped := 0, 0
	for _, lib := range libs {
		if lib.Copyright != "" && lib.Copyright != model.NoCopyrightFound {
			continue
		}

		rec, ok := extractForLibrary(cmd, client, lib)
		if !ok {
			skipped++
			continue
		}
		copyright.Apply(lib, rec)
		if err := a.libraries.Update(ctx, lib); err != nil {
			return err
		}
		extracted++
	}

	fmt.Fprintf(os.Stderr, "Copyright extracted for %d libraries, %d skipped\n", extracted, skipped)
	return nil
}

func extractForLibrary(cmd *cobra.Command, client *fetch.Client, lib *model.Library) (copyright.Reconciled, bool) {
	if lib.HasUsableSourceURL() {
		data, err := client.Get(cmd.Context(), lib.SourceCodeURL)
		if err == nil {
			res, err := copyright.Extract(data)
			if err == nil {
				return copyright.Reconcile(res), true
			}
			fmt.Fprintf(os.Stderr, "warning: scanning archive of %s: %v\n", lib.Label(), err)
		} else {
			fmt.Fprintf(os.Stderr, "warning: downloading source of %s: %v\n", lib.Label(), err)
		}
	}

	if lib.LicenseText != "" {
		return copyright.FromLicenseText(lib.LicenseText), true
	}
	return copyright.Reconciled{}, false
}

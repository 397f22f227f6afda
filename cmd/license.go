package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kompline/kompline/internal/model"
)

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Inspect the license catalog and re-evaluate conflicts",
}

var licenseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the license catalog with risk levels",
	RunE:  runLicenseList,
}

var licenseReevaluateCmd = &cobra.Command{
	Use:   "reevaluate <short-id>",
	Short: "Re-run the conflict check for every library referencing a license",
	Long: `Re-run the pairwise conflict check for every stored library that carries
the given license in its publish or file-license set, and persist the updated
error logs. Use after the license's conflict relation changed.`,
	Args: cobra.ExactArgs(1),
	RunE: runLicenseReevaluate,
}

func init() {
	licenseCmd.AddCommand(licenseListCmd)
	licenseCmd.AddCommand(licenseReevaluateCmd)
	rootCmd.AddCommand(licenseCmd)
}

func runLicenseList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SHORT ID\tSPDX\tRISK")
	for _, lic := range a.registry.All() {
		risk := ""
		if lic.Risk != nil {
			risk = lic.Risk.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", lic.ShortIdentifier, lic.SPDXIdentifier, risk)
	}
	return w.Flush()
}

func runLicenseReevaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	lic, ok := a.registry.Lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: unknown license %q", model.ErrValidation, args[0])
	}

	updated, err := a.matrix.ReevaluateStored(ctx, a.libraries, lic)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Re-evaluated conflicts for %s, %d libraries updated\n",
		lic.ShortIdentifier, updated)
	return nil
}

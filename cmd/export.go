package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kompline/kompline/internal/archive"
	"github.com/kompline/kompline/internal/export"
	"github.com/kompline/kompline/internal/model"
)

var (
	flagExportProject string
	flagExportFlavor  string
	flagExportFormat  string
	flagExportOutput  string

	flagBundleProject string
	flagBundleOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export OSS lists and library dumps",
}

var exportOSSListCmd = &cobra.Command{
	Use:   "osslist",
	Short: "Export the OSS list of a project",
	Long: `Export the OSS list of a project.

Flavors:
  DEFAULT      every eligible library with license, risk and urls
  PUBLISH      outward-facing: one row per component, license columns only
  REQUIREMENT  default columns plus one column per compliance requirement

Examples:
  kompline export osslist --project shop/2.0 --flavor PUBLISH --format html --output oss.html
  kompline export osslist --project shop/2.0 --format csv`,
	RunE: runExportOSSList,
}

var exportLibrariesCmd = &cobra.Command{
	Use:   "libraries",
	Short: "Export the full library dump of a project",
	Long: `Export every library of a project with all stored fields, as JSON or as the
fixed-column CSV interchange format.`,
	RunE: runExportLibraries,
}

var exportBOMCmd = &cobra.Command{
	Use:   "bom",
	Short: "Export a project as a CycloneDX JSON BOM",
	Long: `Export the eligible libraries of a project as a CycloneDX 1.4 JSON BOM,
with publish licenses, copyrights and package urls.`,
	RunE: runExportBOM,
}

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Build the delivery disclosure bundle",
	Long: `Build the OSS disclosure ZIP for a project: license texts, file-level
license findings and copyright notices per library, plus an HTML overview.
Only dependencies eligible for publishing are included.`,
	RunE: runBundle,
}

func init() {
	exportOSSListCmd.Flags().StringVar(&flagExportProject, "project", "", "Source project (name/version or id)")
	exportOSSListCmd.Flags().StringVar(&flagExportFlavor, "flavor", string(export.FlavorDefault), "List flavor: DEFAULT, PUBLISH or REQUIREMENT")
	exportOSSListCmd.Flags().StringVar(&flagExportFormat, "format", string(export.FormatCSV), "Output format: csv or html")
	exportOSSListCmd.Flags().StringVar(&flagExportOutput, "output", "-", "Output file path (use '-' for stdout)")
	exportOSSListCmd.MarkFlagRequired("project")

	exportLibrariesCmd.Flags().StringVar(&flagExportProject, "project", "", "Source project (name/version or id)")
	exportLibrariesCmd.Flags().StringVar(&flagExportFormat, "format", string(export.FormatJSON), "Output format: json or csv")
	exportLibrariesCmd.Flags().StringVar(&flagExportOutput, "output", "-", "Output file path (use '-' for stdout)")
	exportLibrariesCmd.MarkFlagRequired("project")

	bundleCmd.Flags().StringVar(&flagBundleProject, "project", "", "Source project (name/version or id)")
	bundleCmd.Flags().StringVar(&flagBundleOutput, "output", "disclosure.zip", "Output ZIP path")
	bundleCmd.MarkFlagRequired("project")

	exportBOMCmd.Flags().StringVar(&flagExportProject, "project", "", "Source project (name/version or id)")
	exportBOMCmd.Flags().StringVar(&flagExportOutput, "output", "-", "Output file path (use '-' for stdout)")
	exportBOMCmd.MarkFlagRequired("project")

	exportCmd.AddCommand(exportOSSListCmd, exportLibrariesCmd, exportBOMCmd)
	rootCmd.AddCommand(exportCmd, bundleCmd)
}

func runExportOSSList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	project, err := loadProjectWithLibraries(ctx, a, flagExportProject)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(flagExportOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	w := &export.OSSListWriter{Requirements: a.registry.Requirements()}
	return w.Write(out, eligibleLibraries(project),
		export.Flavor(flagExportFlavor), export.Format(flagExportFormat))
}

func runExportLibraries(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	project, err := loadProjectWithLibraries(ctx, a, flagExportProject)
	if err != nil {
		return err
	}

	rows := make([]export.LibraryRow, 0, len(project.Dependencies))
	for _, dep := range project.Dependencies {
		if dep.Library == nil {
			continue
		}
		rows = append(rows, export.LibraryRow{Library: dep.Library, Dep: dep})
	}

	out, closeOut, err := openOutput(flagExportOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	return export.WriteLibraries(out, rows, export.Format(flagExportFormat))
}

func runExportBOM(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	project, err := loadProjectWithLibraries(ctx, a, flagExportProject)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(flagExportOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	w := &export.BOMWriter{ToolVersion: toolVersion}
	return w.Write(out, project, eligibleLibraries(project))
}

func runBundle(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	project, err := loadProjectWithLibraries(ctx, a, flagBundleProject)
	if err != nil {
		return err
	}

	builder := &archive.BundleBuilder{}
	data, err := builder.Build(project, eligibleLibraries(project))
	if err != nil {
		return fmt.Errorf("building bundle: %w", err)
	}
	if err := os.WriteFile(flagBundleOutput, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Disclosure bundle written to: %s\n", flagBundleOutput)
	return nil
}

// eligibleLibraries returns the libraries of dependencies still eligible for
// publishing, in attach order.
func eligibleLibraries(project *model.Project) []*model.Library {
	var libs []*model.Library
	for _, dep := range project.Dependencies {
		if dep.Library == nil || !dep.EligibleForPublishing {
			continue
		}
		libs = append(libs, dep.Library)
	}
	return libs
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

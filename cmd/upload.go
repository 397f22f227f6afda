package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagUploadProject string
	flagUploadMIME    string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a dependency list into a project",
	Long: `Upload a dependency file into a project. Supported formats: CSV dependency
lists, JSON arrays, CycloneDX XML BOMs and archives (zip/jar/tar/tgz)
containing any of those.

Each imported library is deduplicated against the global pool, its license
declaration parsed and resolved, risk derived and, per configuration, the
license conflict scan applied.

Examples:
  kompline upload deps.csv --project shop/2.0
  kompline upload bom.xml --project shop/2.0 --mime application/xml`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&flagUploadProject, "project", "", "Target project (name/version or id)")
	uploadCmd.Flags().StringVar(&flagUploadMIME, "mime", "", "MIME type of the file (default: inferred from the extension)")
	uploadCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	project, err := resolveProjectRef(ctx, a, flagUploadProject)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading upload file: %w", err)
	}

	mimeType := flagUploadMIME
	if mimeType == "" {
		mimeType = mimeForFile(args[0])
	}

	summary, err := a.processor().Run(ctx, project, data, mimeType)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Upload %s: %d loaded, %d filtered, %d imported (%d newly attached, %d already present)\n",
		summary.BatchID, summary.Loaded, summary.Filtered, summary.Imported, summary.Attached, summary.Existing)
	return nil
}

func mimeForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".xml":
		return "application/xml"
	case ".zip", ".jar":
		return "application/zip"
	case ".tar":
		return "application/x-tar"
	case ".tgz", ".gz":
		return "application/gzip"
	default:
		return "application/octet-stream"
	}
}

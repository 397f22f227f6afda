package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kompline/kompline/internal/archive"
	"github.com/kompline/kompline/internal/model"
)

var flagLocateProject string

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the source-archive index",
	Long: `Manage the index mapping library labels (namespace:name:type) to source
archive identifiers. With a mirror configured the remote copy is
authoritative on read and updated on every write.`,
}

var archiveAddCmd = &cobra.Command{
	Use:   "add <label> <archive-id>",
	Short: "Insert or update one index entry",
	Args:  cobra.ExactArgs(2),
	RunE:  runArchiveAdd,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all index entries",
	RunE:  runArchiveList,
}

var archiveLocateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Locate source archives for a project's libraries",
	Long: `Locate the source archive of every library of a project: exact index match
first, then the library's own source url, then a fuzzy index match. Fuzzy
matches are recorded on the library's error log for manual verification.`,
	RunE: runArchiveLocate,
}

func init() {
	archiveLocateCmd.Flags().StringVar(&flagLocateProject, "project", "", "Target project (name/version or id)")
	archiveLocateCmd.MarkFlagRequired("project")

	archiveCmd.AddCommand(archiveAddCmd, archiveListCmd, archiveLocateCmd)
	rootCmd.AddCommand(archiveCmd)
}

func (a *app) indexStore() *archive.IndexStore {
	s := &archive.IndexStore{Path: a.cfg.Archive.IndexPath}
	if a.cfg.Archive.MirrorPath != "" {
		s.Mirror = &archive.FileMirror{Path: a.cfg.Archive.MirrorPath}
	}
	return s
}

func runArchiveAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	store := a.indexStore()
	ix, err := store.Checkout(ctx)
	if err != nil {
		return err
	}
	ix.Insert(args[0], args[1])
	if err := store.Commit(ctx, ix); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Index now holds %d entries\n", ix.Len())
	return nil
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	ix, err := a.indexStore().Checkout(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tARCHIVE")
	for _, entry := range ix.Entries() {
		fmt.Fprintf(tw, "%s\t%s\n", entry.Label, entry.ArchiveID)
	}
	return tw.Flush()
}

func runArchiveLocate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	project, err := resolveProjectRef(ctx, a, flagLocateProject)
	if err != nil {
		return err
	}
	libs, err := a.libraries.ForProject(ctx, project.ID)
	if err != nil {
		return err
	}
	ix, err := a.indexStore().Checkout(ctx)
	if err != nil {
		return err
	}

	missing := 0
	for _, lib := range libs {
		res, err := archive.Resolve(ix, lib, a.cfg.Archive.FuzzyThreshold)
		switch {
		case errors.Is(err, model.ErrUnresolved):
			missing++
			fmt.Printf("%-50s MISSING\n", lib.Label())
			continue
		case err != nil:
			return err
		}

		switch {
		case res.Fuzzy:
			fmt.Printf("%-50s %s (fuzzy match %s, %.2f)\n", lib.Label(), res.ArchiveID, res.MatchedLabel, res.Score)
			// The fuzzy disclosure landed on the error log; persist it.
			if err := a.libraries.Update(ctx, lib); err != nil {
				return err
			}
		case res.ArchiveID != "":
			fmt.Printf("%-50s %s\n", lib.Label(), res.ArchiveID)
		default:
			fmt.Printf("%-50s %s\n", lib.Label(), res.SourceURL)
		}
	}

	if missing > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d libraries have no locatable source archive\n", missing, len(libs))
	}
	return nil
}

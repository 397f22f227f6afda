package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kompline/kompline/internal/model"
)

var (
	flagProjectName     string
	flagProjectVersion  string
	flagProjectPrevious string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage tracked projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new project version",
	Long: `Create a new project version. Link it to its predecessor with --previous
so version diffs and risk history can walk the chain.

Examples:
  kompline project create --name shop --version 1.0
  kompline project create --name shop --version 2.0 --previous shop/1.0`,
	RunE: runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	RunE:  runProjectList,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project>",
	Short: "Delete a project and its dependency links",
	Long: `Delete a project. Its dependency rows go with it; the libraries stay in
the global pool, other projects may reference them.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectDelete,
}

func init() {
	projectCreateCmd.Flags().StringVar(&flagProjectName, "name", "", "Project name")
	projectCreateCmd.Flags().StringVar(&flagProjectVersion, "version", "", "Project version")
	projectCreateCmd.Flags().StringVar(&flagProjectPrevious, "previous", "", "Predecessor project (name/version or id)")
	projectCreateCmd.MarkFlagRequired("name")
	projectCreateCmd.MarkFlagRequired("version")

	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	project := &model.Project{
		Name:        flagProjectName,
		Version:     flagProjectVersion,
		UploadState: model.UploadIdle,
	}
	if flagProjectPrevious != "" {
		prev, err := resolveProjectRef(ctx, a, flagProjectPrevious)
		if err != nil {
			return fmt.Errorf("resolving --previous: %w", err)
		}
		project.PreviousProjectID = &prev.ID
	}

	if err := a.projects.Create(ctx, project); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Created project %s/%s (id %d)\n", project.Name, project.Version, project.ID)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	projects, err := a.projects.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVERSION\tUPLOAD\tDELIVERED")
	for _, p := range projects {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%v\n", p.ID, p.Name, p.Version, p.UploadState, p.Delivered)
	}
	return tw.Flush()
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}

	project, err := resolveProjectRef(ctx, a, args[0])
	if err != nil {
		return err
	}
	if err := a.projects.Delete(ctx, project.ID); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Deleted project %s/%s\n", project.Name, project.Version)
	return nil
}

// resolveProjectRef accepts "name/version" or a numeric id.
func resolveProjectRef(ctx context.Context, a *app, ref string) (*model.Project, error) {
	if name, version, ok := strings.Cut(ref, "/"); ok {
		return a.projects.Find(ctx, name, version)
	}
	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: project reference %q is neither name/version nor an id", model.ErrValidation, ref)
	}
	return a.projects.Get(ctx, uint(id))
}

// loadProjectLibraries loads a project and attaches its libraries to the
// dependency rows so Libraries() works.
func loadProjectLibraries(ctx context.Context, a *app, project *model.Project) error {
	libs, err := a.libraries.ForProject(ctx, project.ID)
	if err != nil {
		return err
	}
	byID := make(map[uint]*model.Library, len(libs))
	for _, lib := range libs {
		byID[lib.ID] = lib
	}
	for _, dep := range project.Dependencies {
		dep.Library = byID[dep.LibraryID]
	}
	return nil
}

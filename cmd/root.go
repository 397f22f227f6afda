package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/kompline/kompline/internal/config"
	"github.com/kompline/kompline/internal/licenses"
	"github.com/kompline/kompline/internal/store"
	"github.com/kompline/kompline/internal/upload"
)

const toolVersion = "1.0.0"

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "kompline",
	Short: "Third-party license compliance tracker",
	Long: `kompline tracks the third-party libraries of your projects and what you
owe their authors: license determinations, compliance risk, source-code
archives and the published OSS disclosure.

Typical flow:
  kompline project create --name shop --version 2.0
  kompline upload deps.csv --project shop/2.0
  kompline export osslist --project shop/2.0 --flavor PUBLISH --format html
  kompline bundle --project shop/2.0 --output disclosure.zip`,
}

func init() {
	rootCmd.Version = toolVersion
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "kompline.yaml", "Path to the configuration file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the wired-up services every command needs. Opened per
// invocation; the CLI is short-lived.
type app struct {
	cfg config.Config
	db  *gorm.DB

	registry *licenses.Registry
	resolver *licenses.Resolver
	risk     *licenses.RiskCalculator
	matrix   *licenses.ConflictMatrix

	libraries *store.LibraryRepository
	projects  *store.ProjectRepository
	deps      *store.DependencyRepository
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	registry := licenses.NewRegistry(licenses.BuiltinCatalog(), licenses.BuiltinRequirements())
	return &app{
		cfg:       cfg,
		db:        db,
		registry:  registry,
		resolver:  licenses.NewResolver(registry),
		risk:      licenses.NewRiskCalculator(registry),
		matrix:    licenses.NewConflictMatrix(registry.All()),
		libraries: store.NewLibraryRepository(db, registry),
		projects:  store.NewProjectRepository(db),
		deps:      store.NewDependencyRepository(db),
	}, nil
}

func (a *app) processor() *upload.Processor {
	p := &upload.Processor{
		Loaders:   upload.NewLoaders(),
		Registry:  a.registry,
		Resolver:  a.resolver,
		Risk:      a.risk,
		Matrix:    a.matrix,
		Pipeline:  licenses.DefaultPipeline(),
		Libraries: a.libraries,
		Deps:      a.deps,
		Projects:  a.projects,
	}
	p.SetOptions(upload.Options{
		ScanConflicts: a.cfg.Upload.ScanConflicts == nil || *a.cfg.Upload.ScanConflicts,
		Concurrency:   a.cfg.Upload.Concurrency,
	})
	return p
}

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kompline/kompline/internal/licenses"
	"github.com/kompline/kompline/internal/model"
)

func openTestDB(t *testing.T) (*LibraryRepository, *ProjectRepository, *DependencyRepository) {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "kompline.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	reg := licenses.NewRegistry(licenses.BuiltinCatalog(), licenses.BuiltinRequirements())
	return NewLibraryRepository(db, reg), NewProjectRepository(db), NewDependencyRepository(db)
}

func testLibrary(name string) *model.Library {
	return &model.Library{
		Namespace:       "org.example",
		Name:            name,
		Version:         "1.0.0",
		Type:            "maven",
		OriginalLicense: "MIT",
	}
}

// ============================================================
// LibraryRepository
// ============================================================

func TestCreateOrMerge_CreateThenMerge(t *testing.T) {
	libs, _, _ := openTestDB(t)
	ctx := context.Background()

	stored, err := libs.CreateOrMerge(ctx, testLibrary("guava"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if stored.ID == 0 {
		t.Fatal("created library has no id")
	}

	incoming := testLibrary("guava")
	incoming.SourceCodeURL = "https://example.com/guava-1.0.0.zip"
	incoming.Copyright = "Copyright 2020 Example"
	merged, err := libs.CreateOrMerge(ctx, incoming)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.ID != stored.ID {
		t.Errorf("merge produced a second row: id %d vs %d", merged.ID, stored.ID)
	}
	if merged.SourceCodeURL != incoming.SourceCodeURL || merged.Copyright != incoming.Copyright {
		t.Errorf("merge dropped incoming fields: %+v", merged)
	}

	all, err := libs.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("row count after merge = %d, want 1", len(all))
	}
}

func TestCreateOrMerge_MergeKeepsStoredFieldsWhenIncomingEmpty(t *testing.T) {
	libs, _, _ := openTestDB(t)
	ctx := context.Background()

	first := testLibrary("guava")
	first.SourceCodeURL = "https://example.com/guava.zip"
	if _, err := libs.CreateOrMerge(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	merged, err := libs.CreateOrMerge(ctx, testLibrary("guava"))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.SourceCodeURL != first.SourceCodeURL {
		t.Errorf("blank incoming field overwrote stored value: %q", merged.SourceCodeURL)
	}
}

func TestCreateOrMerge_DistinctVersionsAreDistinctRows(t *testing.T) {
	libs, _, _ := openTestDB(t)
	ctx := context.Background()

	if _, err := libs.CreateOrMerge(ctx, testLibrary("guava")); err != nil {
		t.Fatalf("create 1.0.0: %v", err)
	}
	v2 := testLibrary("guava")
	v2.Version = "2.0.0"
	if _, err := libs.CreateOrMerge(ctx, v2); err != nil {
		t.Fatalf("create 2.0.0: %v", err)
	}

	all, err := libs.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("row count = %d, want 2", len(all))
	}
}

func TestUpdate_IdentityImmutable(t *testing.T) {
	libs, _, _ := openTestDB(t)
	ctx := context.Background()

	stored, err := libs.CreateOrMerge(ctx, testLibrary("guava"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stored.Name = "renamed"
	stored.Reviewed = true
	if err := libs.Update(ctx, stored); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := libs.Get(ctx, stored.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.Name != "guava" {
		t.Errorf("identity field changed on update: name = %q", reloaded.Name)
	}
	if !reloaded.Reviewed {
		t.Error("non-identity update was lost")
	}
}

func TestLibraryRoundTrip_ChainAndErrorLog(t *testing.T) {
	libs, _, _ := openTestDB(t)
	ctx := context.Background()
	reg := licenses.NewRegistry(licenses.BuiltinCatalog(), licenses.BuiltinRequirements())

	lib := testLibrary("dual-licensed")
	lib.OriginalLicense = "MIT OR Apache-2.0"
	lib.Licenses = licenses.ParseExpression(lib.OriginalLicense, reg)
	licenses.NewResolver(reg).Resolve(lib)
	licenses.NewRiskCalculator(reg).Apply(lib)
	lib.LogProblem(model.IssueCopyright, "no copyright found in archive", model.SeverityMedium)

	stored, err := libs.CreateOrMerge(ctx, lib)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	reloaded, err := libs.Get(ctx, stored.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if diff := cmp.Diff(shortIDs(model.ChainLicenses(lib.Licenses)), shortIDs(model.ChainLicenses(reloaded.Licenses))); diff != "" {
		t.Errorf("chain round trip mismatch (-want +got):\n%s", diff)
	}
	if len(reloaded.Licenses) == 2 && reloaded.Licenses[0].Join != model.JoinOr {
		t.Errorf("join type lost: %q", reloaded.Licenses[0].Join)
	}
	if diff := cmp.Diff(shortIDs(lib.LicenseToPublish), shortIDs(reloaded.LicenseToPublish)); diff != "" {
		t.Errorf("publish set round trip mismatch (-want +got):\n%s", diff)
	}
	if reloaded.LicenseRisk == nil || reloaded.LicenseRisk.Name != lib.LicenseRisk.Name {
		t.Errorf("risk round trip mismatch: %+v", reloaded.LicenseRisk)
	}
	if diff := cmp.Diff(lib.ErrorLog, reloaded.ErrorLog); diff != "" {
		t.Errorf("error log round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReferencingLicense(t *testing.T) {
	libs, _, _ := openTestDB(t)
	ctx := context.Background()
	reg := licenses.NewRegistry(licenses.BuiltinCatalog(), licenses.BuiltinRequirements())
	resolver := licenses.NewResolver(reg)

	mit := testLibrary("uses-mit")
	resolver.Resolve(mit)
	apache := testLibrary("uses-apache")
	apache.OriginalLicense = "Apache-2.0"
	resolver.Resolve(apache)

	for _, lib := range []*model.Library{mit, apache} {
		if _, err := libs.CreateOrMerge(ctx, lib); err != nil {
			t.Fatalf("create %s: %v", lib.Name, err)
		}
	}

	hits, err := libs.ReferencingLicense(ctx, "Apache-2.0")
	if err != nil {
		t.Fatalf("ReferencingLicense: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "uses-apache" {
		t.Errorf("hits = %v, want only uses-apache", names(hits))
	}
}

// ============================================================
// Projects and dependencies
// ============================================================

func TestAttach_Idempotent(t *testing.T) {
	libs, projects, deps := openTestDB(t)
	ctx := context.Background()

	project := &model.Project{Name: "shop", Version: "1.0"}
	if err := projects.Create(ctx, project); err != nil {
		t.Fatalf("Create project: %v", err)
	}
	lib, err := libs.CreateOrMerge(ctx, testLibrary("guava"))
	if err != nil {
		t.Fatalf("create library: %v", err)
	}

	created, err := deps.Attach(ctx, project.ID, lib.ID, false)
	if err != nil || !created {
		t.Fatalf("first attach: created=%v err=%v", created, err)
	}
	created, err = deps.Attach(ctx, project.ID, lib.ID, false)
	if err != nil {
		t.Fatalf("second attach: %v", err)
	}
	if created {
		t.Error("second attach reported a new row")
	}

	reloaded, err := projects.Get(ctx, project.ID)
	if err != nil {
		t.Fatalf("Get project: %v", err)
	}
	if len(reloaded.Dependencies) != 1 {
		t.Errorf("dependency rows = %d, want 1", len(reloaded.Dependencies))
	}
	if !reloaded.Dependencies[0].EligibleForPublishing {
		t.Error("new dependency not eligible for publishing by default")
	}
}

func TestDelete_CascadesToDependenciesNotLibraries(t *testing.T) {
	libs, projects, deps := openTestDB(t)
	ctx := context.Background()

	project := &model.Project{Name: "shop", Version: "1.0"}
	if err := projects.Create(ctx, project); err != nil {
		t.Fatalf("Create project: %v", err)
	}
	successor := &model.Project{Name: "shop", Version: "2.0", PreviousProjectID: &project.ID}
	if err := projects.Create(ctx, successor); err != nil {
		t.Fatalf("Create successor: %v", err)
	}
	lib, err := libs.CreateOrMerge(ctx, testLibrary("guava"))
	if err != nil {
		t.Fatalf("create library: %v", err)
	}
	if _, err := deps.Attach(ctx, project.ID, lib.ID, false); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if err := projects.Delete(ctx, project.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := projects.Get(ctx, project.ID); err == nil {
		t.Error("deleted project still loads")
	}
	if _, err := libs.Get(ctx, lib.ID); err != nil {
		t.Errorf("library was deleted with the project: %v", err)
	}
	reloaded, err := projects.Get(ctx, successor.ID)
	if err != nil {
		t.Fatalf("Get successor: %v", err)
	}
	if reloaded.PreviousProjectID != nil {
		t.Error("successor still points at the deleted predecessor")
	}
}

func TestSetUploadState(t *testing.T) {
	_, projects, _ := openTestDB(t)
	ctx := context.Background()

	project := &model.Project{Name: "shop", Version: "1.0"}
	if err := projects.Create(ctx, project); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := projects.SetUploadState(ctx, project.ID, model.UploadProcessing); err != nil {
		t.Fatalf("SetUploadState: %v", err)
	}

	reloaded, err := projects.Get(ctx, project.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.UploadState != model.UploadProcessing {
		t.Errorf("upload state = %s, want PROCESSING", reloaded.UploadState)
	}
}

func TestSetEligibility(t *testing.T) {
	libs, projects, deps := openTestDB(t)
	ctx := context.Background()

	project := &model.Project{Name: "shop", Version: "1.0"}
	if err := projects.Create(ctx, project); err != nil {
		t.Fatalf("Create: %v", err)
	}
	lib, err := libs.CreateOrMerge(ctx, testLibrary("internal-tool"))
	if err != nil {
		t.Fatalf("create library: %v", err)
	}
	if _, err := deps.Attach(ctx, project.ID, lib.ID, true); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if err := deps.SetEligibility(ctx, project.ID, lib.ID, false, "internal component"); err != nil {
		t.Fatalf("SetEligibility: %v", err)
	}

	reloaded, err := projects.Get(ctx, project.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	dep := reloaded.Dependencies[0]
	if dep.EligibleForPublishing || dep.Comment != "internal component" {
		t.Errorf("eligibility update lost: %+v", dep)
	}
}

func shortIDs(set []*model.License) []string {
	out := make([]string, 0, len(set))
	for _, l := range set {
		out = append(out, l.ShortIdentifier)
	}
	return out
}

func names(libs []*model.Library) []string {
	out := make([]string, 0, len(libs))
	for _, l := range libs {
		out = append(out, l.Name)
	}
	return out
}

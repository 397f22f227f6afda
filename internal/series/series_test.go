package series

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kompline/kompline/internal/licenses"
	"github.com/kompline/kompline/internal/model"
)

func projectWithRisks(id uint, version string, levels ...int) *model.Project {
	ladder := licenses.RiskLadder()
	p := &model.Project{ID: id, Name: "shop", Version: version}
	for _, level := range levels {
		p.Dependencies = append(p.Dependencies, &model.Dependency{
			Library: &model.Library{Name: "lib", Version: version, Type: "maven",
				LicenseRisk: ladder[level]},
		})
	}
	return p
}

func TestBuild_ChainOfThreeBoundedAtFive(t *testing.T) {
	oldest := projectWithRisks(1, "1.0", licenses.RiskLevelPermissive)
	middle := projectWithRisks(2, "2.0",
		licenses.RiskLevelPermissive, licenses.RiskLevelStrongCopyleft)
	current := projectWithRisks(3, "3.0",
		licenses.RiskLevelPermissive, licenses.RiskLevelPermissive, licenses.RiskLevelLimitedCopyleft)
	middle.PreviousProject = oldest
	current.PreviousProject = middle

	b := &Builder{Ladder: licenses.RiskLadder(), MaxDepth: 5}
	h := b.Build(current)

	if diff := cmp.Diff([]string{"3.0", "2.0", "1.0"}, h.Versions); diff != "" {
		t.Errorf("versions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 2, 1}, h.LibraryCount); diff != "" {
		t.Errorf("library counts mismatch (-want +got):\n%s", diff)
	}

	// Every risk level has an aligned series with explicit zeros.
	if diff := cmp.Diff([]int{2, 1, 1}, h.RiskCounts["Permissive"]); diff != "" {
		t.Errorf("Permissive series (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 0}, h.RiskCounts["Strong Copyleft"]); diff != "" {
		t.Errorf("Strong Copyleft series (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 0, 0}, h.RiskCounts["Limited Copyleft"]); diff != "" {
		t.Errorf("Limited Copyleft series (-want +got):\n%s", diff)
	}
	for name, series := range h.RiskCounts {
		if len(series) != len(h.Versions) {
			t.Errorf("series %q has %d entries, want %d", name, len(series), len(h.Versions))
		}
	}
}

func TestBuild_DepthBound(t *testing.T) {
	var head *model.Project
	for i := 10; i >= 1; i-- {
		p := projectWithRisks(uint(i), "v", licenses.RiskLevelPermissive)
		p.PreviousProject = head
		head = p
	}

	b := &Builder{Ladder: licenses.RiskLadder(), MaxDepth: 3}
	h := b.Build(head)
	if len(h.Versions) != 3 {
		t.Errorf("walk visited %d versions, want 3", len(h.Versions))
	}
}

func TestBuild_TerminatesOnCycle(t *testing.T) {
	a := projectWithRisks(1, "1.0")
	b := projectWithRisks(2, "2.0")
	a.PreviousProject = b
	b.PreviousProject = a // corrupt chain

	builder := &Builder{Ladder: licenses.RiskLadder(), MaxDepth: 50}
	h := builder.Build(a)
	if len(h.Versions) != 2 {
		t.Errorf("cycle walk visited %d versions, want 2", len(h.Versions))
	}
}

func TestBuild_TerminatesOnCycleOfUnsavedProjects(t *testing.T) {
	a := projectWithRisks(0, "1.0")
	b := projectWithRisks(0, "2.0")
	a.PreviousProject = b
	b.PreviousProject = a // corrupt chain, no ids assigned yet

	builder := &Builder{Ladder: licenses.RiskLadder(), MaxDepth: 50}
	h := builder.Build(a)
	if len(h.Versions) != 2 {
		t.Errorf("cycle walk visited %d versions, want 2", len(h.Versions))
	}
}

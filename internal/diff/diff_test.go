package diff

import (
	"testing"

	"github.com/kompline/kompline/internal/model"
)

// project builds a test project with dependencies over the given libraries.
func project(name string, libs ...*model.Library) *model.Project {
	p := &model.Project{Name: name, Version: "1"}
	for _, lib := range libs {
		p.Dependencies = append(p.Dependencies, &model.Dependency{Library: lib})
	}
	return p
}

func lib(ns, name, version string) *model.Library {
	return &model.Library{Namespace: ns, Name: name, Version: version, Type: "maven"}
}

func names(libs []*model.Library) []string {
	out := make([]string, 0, len(libs))
	for _, l := range libs {
		out = append(out, l.Name+"@"+l.Version)
	}
	return out
}

func TestCompare_ProjectWithItself(t *testing.T) {
	a := project("p",
		lib("org.x", "alpha", "1.0"),
		lib("", "beta", "2.0"),
		lib("org.y", "gamma", "0.3"),
	)

	res := Compare(a, a)

	if len(res.Same) != 3 {
		t.Errorf("Same = %v, want all 3 libraries", names(res.Same))
	}
	if len(res.AddedToA) != 0 || len(res.AddedToB) != 0 {
		t.Errorf("self-compare must have empty added buckets: %v / %v",
			names(res.AddedToA), names(res.AddedToB))
	}
	if len(res.NewOnlyInA) != 0 || len(res.NewOnlyInB) != 0 {
		t.Errorf("self-compare must have empty new buckets: %v / %v",
			names(res.NewOnlyInA), names(res.NewOnlyInB))
	}
}

func TestCompare_VersionBumpIsNotAddRemove(t *testing.T) {
	a := project("old", lib("org.x", "y", "1.0"))
	b := project("new", lib("org.x", "y", "2.0"))

	res := Compare(a, b)

	// The component exists on both sides: classified as the same library.
	if len(res.Same) != 1 || res.Same[0].Version != "1.0" {
		t.Errorf("Same = %v, want the version-1.0 entry", names(res.Same))
	}

	// Version-level diff still records both concrete versions...
	if len(res.AddedToA) != 1 || len(res.AddedToB) != 1 {
		t.Errorf("version-level buckets = %v / %v, want one entry each",
			names(res.AddedToA), names(res.AddedToB))
	}

	// ...but neither side reports a genuinely new component.
	if len(res.NewOnlyInA) != 0 || len(res.NewOnlyInB) != 0 {
		t.Errorf("version bump misreported as new: %v / %v",
			names(res.NewOnlyInA), names(res.NewOnlyInB))
	}

	changes := VersionChanges(a, b)
	if len(changes) != 1 || changes[0][0].Version != "1.0" || changes[0][1].Version != "2.0" {
		t.Errorf("VersionChanges = %v, want the 1.0 -> 2.0 pair", changes)
	}
}

func TestCompare_GenuinelyNewComponent(t *testing.T) {
	shared := lib("org.x", "core", "1.0")
	a := project("a", shared, lib("org.x", "a-only", "1.0"))
	b := project("b", shared, lib("", "b-only", "3.1"))

	res := Compare(a, b)

	if len(res.NewOnlyInA) != 1 || res.NewOnlyInA[0].Name != "a-only" {
		t.Errorf("NewOnlyInA = %v", names(res.NewOnlyInA))
	}
	if len(res.NewOnlyInB) != 1 || res.NewOnlyInB[0].Name != "b-only" {
		t.Errorf("NewOnlyInB = %v", names(res.NewOnlyInB))
	}
	if len(res.Same) != 1 || res.Same[0].Name != "core" {
		t.Errorf("Same = %v", names(res.Same))
	}
}

func TestCompare_NamespaceDistinguishesComponents(t *testing.T) {
	// Same name and type under different namespaces: different components.
	a := project("a", lib("org.left", "util", "1.0"))
	b := project("b", lib("org.right", "util", "1.0"))

	res := Compare(a, b)
	if len(res.Same) != 0 {
		t.Errorf("different namespaces must not collapse: Same = %v", names(res.Same))
	}
	if len(res.NewOnlyInA) != 1 || len(res.NewOnlyInB) != 1 {
		t.Errorf("expected one genuinely new entry per side: %v / %v",
			names(res.NewOnlyInA), names(res.NewOnlyInB))
	}
}

func TestCompare_BlankNamespaceMatchesBlank(t *testing.T) {
	a := project("a", lib("", "lodash", "4.17.20"))
	b := project("b", lib("", "lodash", "4.17.21"))

	res := Compare(a, b)
	if len(res.Same) != 1 {
		t.Errorf("blank namespaces should compare equal: Same = %v", names(res.Same))
	}
}

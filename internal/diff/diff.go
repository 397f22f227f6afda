// Package diff compares the dependency sets of two projects.
package diff

import (
	"sort"

	"github.com/kompline/kompline/internal/model"
)

// Result buckets the comparison of project A against project B.
//
// Two identity granularities are in play. Same collapses on (namespace, name,
// type): two versions of one component are the same library, and a version
// bump lands here, never as a removal plus an addition. AddedToA/AddedToB are
// the raw version-level differences by full identity (namespace, name,
// version, type); a version bump appears on both sides there. NewOnlyInA and
// NewOnlyInB are the genuinely new components: added entries whose
// (namespace, name, type) does not exist on the other side at any version.
type Result struct {
	Same []*model.Library // A's libraries whose (ns, name, type) also exists in B

	AddedToA []*model.Library // in A, no library in B with the same full identity
	AddedToB []*model.Library

	NewOnlyInA []*model.Library // subset of AddedToA new at the component level
	NewOnlyInB []*model.Library
}

// Compare diffs the libraries of two projects in two passes. Pass one takes
// version-level set differences by full identity. Pass two re-partitions
// those differences by collapsing on (namespace, name, type) against the
// other project's full library list: an added entry whose component exists on
// the other side is a version bump (kept in Same via the collapse), only the
// rest is genuinely new. A naive single-pass difference would misreport every
// version bump as one removal plus one addition.
func Compare(a, b *model.Project) Result {
	libsA := a.Libraries()
	libsB := b.Libraries()

	fullA := keySet(libsA, (*model.Library).IdentityKey)
	fullB := keySet(libsB, (*model.Library).IdentityKey)
	groupA := keySet(libsA, (*model.Library).GroupKey)
	groupB := keySet(libsB, (*model.Library).GroupKey)

	var res Result

	for _, lib := range libsA {
		if groupB[lib.GroupKey()] {
			res.Same = append(res.Same, lib)
		}
		if !fullB[lib.IdentityKey()] {
			res.AddedToA = append(res.AddedToA, lib)
			if !groupB[lib.GroupKey()] {
				res.NewOnlyInA = append(res.NewOnlyInA, lib)
			}
		}
	}

	for _, lib := range libsB {
		if !fullA[lib.IdentityKey()] {
			res.AddedToB = append(res.AddedToB, lib)
			if !groupA[lib.GroupKey()] {
				res.NewOnlyInB = append(res.NewOnlyInB, lib)
			}
		}
	}

	sortBucket(res.Same)
	sortBucket(res.AddedToA)
	sortBucket(res.AddedToB)
	sortBucket(res.NewOnlyInA)
	sortBucket(res.NewOnlyInB)
	return res
}

// VersionChanges pairs up the version bumps between the two projects: same
// component, different version. The pair order is {A's library, B's library}.
func VersionChanges(a, b *model.Project) [][2]*model.Library {
	byGroupB := map[string]*model.Library{}
	for _, lib := range b.Libraries() {
		byGroupB[lib.GroupKey()] = lib
	}

	var out [][2]*model.Library
	for _, lib := range a.Libraries() {
		other, ok := byGroupB[lib.GroupKey()]
		if !ok || other.Version == lib.Version {
			continue
		}
		out = append(out, [2]*model.Library{lib, other})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i][0].IdentityKey() < out[j][0].IdentityKey()
	})
	return out
}

func keySet(libs []*model.Library, key func(*model.Library) string) map[string]bool {
	set := make(map[string]bool, len(libs))
	for _, lib := range libs {
		set[key(lib)] = true
	}
	return set
}

func sortBucket(libs []*model.Library) {
	sort.Slice(libs, func(i, j int) bool {
		return libs[i].IdentityKey() < libs[j].IdentityKey()
	})
}

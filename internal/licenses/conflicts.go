package licenses

import (
	"context"
	"fmt"

	"github.com/kompline/kompline/internal/model"
)

// ConflictMatrix answers pairwise license incompatibility. The underlying
// relation is stored once per pair on the License rows; the matrix expands it
// into a symmetric lookup at construction time.
type ConflictMatrix struct {
	pairs map[[2]string]bool
}

// NewConflictMatrix precomputes the symmetric conflict relation from the
// catalog's per-license conflict lists.
func NewConflictMatrix(catalog []*model.License) *ConflictMatrix {
	m := &ConflictMatrix{pairs: make(map[[2]string]bool)}
	for _, lic := range catalog {
		for _, other := range lic.Conflicts {
			m.pairs[[2]string{lic.ShortIdentifier, other}] = true
			m.pairs[[2]string{other, lic.ShortIdentifier}] = true
		}
	}
	return m
}

// Incompatible reports whether a and b are known to be incompatible.
// Symmetric: Incompatible(a, b) == Incompatible(b, a).
func (m *ConflictMatrix) Incompatible(a, b *model.License) bool {
	if a == nil || b == nil {
		return false
	}
	return m.pairs[[2]string{a.ShortIdentifier, b.ShortIdentifier}]
}

// conflictMessage is the deterministic error-log text for one incompatible
// pair. Dedup on the library error log keys off this exact string.
func conflictMessage(a, b *model.License) string {
	return fmt.Sprintf("License %s is incompatible with license %s",
		a.ShortIdentifier, b.ShortIdentifier)
}

// CheckLibrary scans the library's license sets for incompatible pairs and
// records each finding as a HIGH-severity error-log entry. Three independent
// scans run: within the publish set, within the file-license set, and across
// the union of both. Re-running the check never duplicates an entry.
//
// Cost is O(n²) over the library's license sets. Sets are single-digit in
// practice, but callers processing thousands of libraries should consult the
// conflict-scan policy knob before invoking this per library.
//
// Returns true if any new entry was recorded.
func (m *ConflictMatrix) CheckLibrary(lib *model.Library) bool {
	changed := false

	if len(lib.LicenseToPublish) > 1 {
		changed = m.scanPairs(lib, lib.LicenseToPublish, lib.LicenseToPublish) || changed
	}
	if len(lib.LicenseOfFiles) > 1 {
		changed = m.scanPairs(lib, lib.LicenseOfFiles, lib.LicenseOfFiles) || changed
	}
	if len(lib.LicenseToPublish) > 0 && len(lib.LicenseOfFiles) > 0 {
		changed = m.scanPairs(lib, lib.LicenseToPublish, lib.LicenseOfFiles) || changed
	}
	return changed
}

// scanPairs walks the Cartesian product of two license sets. Self-pairs are
// included on purpose: the same identifier can conflict with a different
// instance of itself in rare data states, and a == b without a stored
// conflict is a harmless no-op.
func (m *ConflictMatrix) scanPairs(lib *model.Library, left, right []*model.License) bool {
	changed := false
	for _, a := range left {
		for _, b := range right {
			if !m.Incompatible(a, b) {
				continue
			}
			if lib.LogProblem(model.IssueLicenseConflict, conflictMessage(a, b), model.SeverityHigh) {
				changed = true
			}
		}
	}
	return changed
}

// Reevaluate re-runs the conflict check for every library referencing the
// given license in its publish or file-license set, returning the libraries
// whose error log changed so the caller can persist them. Used after a
// license's conflict relation is edited.
func (m *ConflictMatrix) Reevaluate(lic *model.License, libs []*model.Library) []*model.Library {
	var changed []*model.Library
	for _, lib := range libs {
		if !references(lib, lic) {
			continue
		}
		if m.CheckLibrary(lib) {
			changed = append(changed, lib)
		}
	}
	return changed
}

// ConflictStore is the persistence slice the stored re-evaluation needs.
type ConflictStore interface {
	// ReferencingLicense returns every library carrying the license in its
	// publish or file-license set.
	ReferencingLicense(ctx context.Context, shortID string) ([]*model.Library, error)
	Update(ctx context.Context, lib *model.Library) error
}

// ReevaluateStored runs the full re-evaluation flow after a license's
// conflict relation is edited: load every persisted library referencing the
// license, re-run the conflict check, and save the ones whose error log
// changed. Returns the number of libraries updated.
func (m *ConflictMatrix) ReevaluateStored(ctx context.Context, store ConflictStore, lic *model.License) (int, error) {
	libs, err := store.ReferencingLicense(ctx, lic.ShortIdentifier)
	if err != nil {
		return 0, fmt.Errorf("loading libraries referencing %s: %w", lic.ShortIdentifier, err)
	}

	changed := m.Reevaluate(lic, libs)
	for _, lib := range changed {
		if err := store.Update(ctx, lib); err != nil {
			return len(changed), fmt.Errorf("saving %s: %w", lib.Label(), err)
		}
	}
	return len(changed), nil
}

func references(lib *model.Library, lic *model.License) bool {
	for _, l := range lib.LicenseToPublish {
		if l != nil && l.ShortIdentifier == lic.ShortIdentifier {
			return true
		}
	}
	for _, l := range lib.LicenseOfFiles {
		if l != nil && l.ShortIdentifier == lic.ShortIdentifier {
			return true
		}
	}
	return false
}

// Package series builds historical statistics across a project's version chain.
package series

import (
	"github.com/kompline/kompline/internal/model"
)

// DefaultMaxDepth bounds how many versions a history walk visits when the
// caller does not configure a limit.
const DefaultMaxDepth = 5

// History holds index-aligned series across a project's version chain,
// current version first, oldest visited version last. Every series has
// exactly len(Versions) entries; a version lacking libraries of some risk
// level carries an explicit zero at its position, never a gap.
type History struct {
	Versions     []string         // project version labels, newest first
	LibraryCount []int            // total libraries per version
	RiskCounts   map[string][]int // risk level name -> per-version counts
}

// Builder walks the PreviousProject chain.
type Builder struct {
	// Ladder is the full risk ladder; every level gets a series even when no
	// visited version carries it.
	Ladder []*model.LicenseRisk

	// MaxDepth bounds the walk. Zero means DefaultMaxDepth.
	MaxDepth int
}

// Build accumulates the history starting at the given project. The walk stops
// at the depth bound and refuses to revisit a project id it has already seen,
// so a corrupted predecessor chain cannot loop it.
func (b *Builder) Build(current *model.Project) History {
	maxDepth := b.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	h := History{RiskCounts: make(map[string][]int, len(b.Ladder))}
	for _, risk := range b.Ladder {
		h.RiskCounts[risk.Name] = nil
	}

	// Guard on pointer identity as well as id: unsaved projects all carry
	// id 0 and would otherwise slip past the id check.
	seenID := map[uint]bool{}
	seenPtr := map[*model.Project]bool{}
	for p := current; p != nil && len(h.Versions) < maxDepth; p = p.PreviousProject {
		if seenPtr[p] || (p.ID != 0 && seenID[p.ID]) {
			break // cycle in the chain, bail out
		}
		seenPtr[p] = true
		if p.ID != 0 {
			seenID[p.ID] = true
		}
		b.appendVersion(&h, p)
	}
	return h
}

func (b *Builder) appendVersion(h *History, p *model.Project) {
	libs := p.Libraries()
	h.Versions = append(h.Versions, p.Version)
	h.LibraryCount = append(h.LibraryCount, len(libs))

	counts := make(map[string]int, len(b.Ladder))
	for _, lib := range libs {
		name := "Unknown"
		if lib.LicenseRisk != nil {
			name = lib.LicenseRisk.Name
		}
		counts[name]++
	}

	// Extend every risk series by exactly one slot so all series stay
	// index-aligned with Versions.
	for _, risk := range b.Ladder {
		h.RiskCounts[risk.Name] = append(h.RiskCounts[risk.Name], counts[risk.Name])
	}
}

package archive

import (
	"fmt"

	"github.com/kompline/kompline/internal/model"
)

// Resolution is the outcome of locating a library's source archive. Exactly
// one of ArchiveID or SourceURL is set.
type Resolution struct {
	ArchiveID string // identifier into the archive repository
	SourceURL string // direct download target, bypassing the index

	// Fuzzy marks an approximate index match. MatchedLabel and Score carry
	// the matched row and its similarity for the disclosure log entry.
	Fuzzy        bool
	MatchedLabel string
	Score        float64
}

// Resolve locates the source archive for a library, in order of preference:
//
//  1. exact index match on the library's label
//  2. the library's own source URL, when directly usable (this path never
//     touches the index)
//  3. fuzzy index match above the threshold, always disclosed on the
//     library's error log as a MEDIUM finding that needs manual verification
//
// When nothing resolves, the typed ErrUnresolved is returned so downstream
// consumers (bundle builder, analysis hand-off) can record "archive not
// found" as library state instead of failing.
func Resolve(ix *Index, lib *model.Library, fuzzyThreshold float64) (Resolution, error) {
	label := lib.Label()

	if id, ok := ix.LookupExact(label); ok {
		return Resolution{ArchiveID: id}, nil
	}

	if lib.HasUsableSourceURL() {
		return Resolution{SourceURL: lib.SourceCodeURL}, nil
	}

	if entry, score, ok := ix.LookupFuzzy(label, fuzzyThreshold); ok {
		lib.LogProblem(model.IssueFuzzyArchiveMatch,
			fmt.Sprintf("source archive %s was matched approximately via index label %s, verify manually",
				entry.ArchiveID, entry.Label),
			model.SeverityMedium)
		return Resolution{
			ArchiveID:    entry.ArchiveID,
			Fuzzy:        true,
			MatchedLabel: entry.Label,
			Score:        score,
		}, nil
	}

	return Resolution{}, fmt.Errorf("%w: no source archive for %s", model.ErrUnresolved, label)
}

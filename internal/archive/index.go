// Package archive locates source-code archives for libraries through a flat,
// line-oriented index file, and assembles license delivery bundles.
package archive

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Entry is one index row: a library label mapped to the identifier of its
// cached source archive (identifier includes the file extension).
type Entry struct {
	Label     string // "namespace:name:type" or "name:type"
	ArchiveID string // e.g. "commons-lang3-3.14.0.jar"
}

// Index is an in-memory snapshot of the archive index file. The on-disk file
// is append-mostly; the snapshot keeps rows in file order and resolves
// duplicate labels last-wins, matching what a line-by-line reader would see.
type Index struct {
	entries []Entry
	byLabel map[string]string
}

func NewIndex() *Index {
	return &Index{byLabel: make(map[string]string)}
}

// ParseIndex reads the "label,archiveIdentifier" line format. Blank lines are
// skipped; a line without a comma is malformed and rejects the whole file,
// since a silently dropped row would later look like a missing archive.
func ParseIndex(r io.Reader) (*Index, error) {
	ix := NewIndex()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		label, id, ok := strings.Cut(line, ",")
		if !ok || strings.TrimSpace(label) == "" || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("archive index line %d is malformed: %q", lineNo, line)
		}
		ix.put(strings.TrimSpace(label), strings.TrimSpace(id))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading archive index: %w", err)
	}
	return ix, nil
}

func (ix *Index) put(label, id string) {
	if _, exists := ix.byLabel[label]; !exists {
		ix.entries = append(ix.entries, Entry{Label: label, ArchiveID: id})
	} else {
		for i := range ix.entries {
			if ix.entries[i].Label == label {
				ix.entries[i].ArchiveID = id
				break
			}
		}
	}
	ix.byLabel[label] = id
}

// LookupExact returns the archive identifier stored for the label.
func (ix *Index) LookupExact(label string) (string, bool) {
	id, ok := ix.byLabel[label]
	return id, ok
}

// Insert records a new label -> archive mapping on the snapshot. Re-inserting
// an existing label updates its identifier in place. The change becomes
// durable only when the snapshot is committed.
func (ix *Index) Insert(label, archiveID string) {
	ix.put(label, archiveID)
}

// Len returns the number of distinct labels in the snapshot.
func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns the index rows in file order.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, len(ix.entries))
	copy(out, ix.entries)
	return out
}

// WriteTo serializes the snapshot back into the line format, one row per
// distinct label, preserving file order.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, e := range ix.entries {
		n, err := fmt.Fprintf(w, "%s,%s\n", e.Label, e.ArchiveID)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// LookupFuzzy returns the single best approximate match for the label among
// all index rows, along with its similarity score. Only candidates at or
// above the threshold qualify; ties break lexicographically by label so the
// result is deterministic. The caller owns the disclosure duty: a fuzzy hit
// must be surfaced to a human, never treated as an exact resolution.
func (ix *Index) LookupFuzzy(label string, threshold float64) (Entry, float64, bool) {
	target := normalizeLabel(label)

	var (
		best      Entry
		bestScore float64
		found     bool
	)

	labels := make([]string, 0, len(ix.entries))
	for _, e := range ix.entries {
		labels = append(labels, e.Label)
	}
	sort.Strings(labels)

	for _, candidate := range labels {
		score := similarity(target, normalizeLabel(candidate))
		if score < threshold {
			continue
		}
		if !found || score > bestScore {
			best = Entry{Label: candidate, ArchiveID: ix.byLabel[candidate]}
			bestScore = score
			found = true
		}
	}
	return best, bestScore, found
}

// normalizeLabel folds the label variations seen across upload sources:
// lowercase, with underscores and dots collapsed to hyphens.
func normalizeLabel(label string) string {
	result := make([]byte, 0, len(label))
	for i := 0; i < len(label); i++ {
		b := label[i]
		if b >= 'A' && b <= 'Z' {
			b += 32
		}
		if b == '_' || b == '.' {
			b = '-'
		}
		result = append(result, b)
	}
	return string(result)
}

// similarity is 1 - editDistance/maxLen over the two strings; 1.0 means
// identical, 0.0 means nothing in common.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(editDistance(a, b))/float64(longest)
}

// editDistance is the classic two-row Levenshtein distance.
func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

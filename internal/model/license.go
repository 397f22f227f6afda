package model

// License is a canonical license identified by its short identifier
// (e.g. "Apache-2.0"). Licenses are shared catalog rows; libraries reference
// them, they are never owned by a single library.
type License struct {
	ID uint

	ShortIdentifier string // primary identity, unique
	SPDXIdentifier  string // optional, may equal ShortIdentifier

	Risk *LicenseRisk

	GenericLicenseText string

	// Requirements are the compliance obligations of the license, referencing
	// the requirement catalog by short name (e.g. "Include-License-Text").
	Requirements []string

	// Conflicts holds the short identifiers of licenses this one is known to
	// be incompatible with. The relation is symmetric but stored once per
	// pair, so every reader must interpret it bidirectionally.
	Conflicts []string
}

// ConflictsWith reports whether o appears in this license's stored conflict
// list. Callers that need the symmetric relation should use
// licenses.ConflictMatrix instead of calling this directly on one side.
func (l *License) ConflictsWith(o *License) bool {
	for _, id := range l.Conflicts {
		if id == o.ShortIdentifier {
			return true
		}
	}
	return false
}

// LicenseRisk is an ordered compliance-severity level with display metadata.
// Higher Level means worse: a set of licenses is always classified by its
// worst member.
type LicenseRisk struct {
	Level int    // 0 = unknown, rising with severity
	Name  string // e.g. "Permissive", "Strong Copyleft"
	Color string // display color, e.g. "#d9534f"
}

// Worse reports whether r is strictly more severe than o. A nil receiver or
// argument counts as the lowest severity.
func (r *LicenseRisk) Worse(o *LicenseRisk) bool {
	if r == nil {
		return false
	}
	if o == nil {
		return true
	}
	return r.Level > o.Level
}

// Requirement is one entry of the compliance-requirement catalog. The
// REQUIREMENT flavor of the OSS list generates one column per catalog entry.
type Requirement struct {
	ID          uint
	ShortName   string // unique, referenced from License.Requirements
	Description string
}

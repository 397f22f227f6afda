// Package licenses implements license resolution: parsing free-text license
// declarations into canonical license chains, choosing the publishable license
// set, classifying risk, and detecting pairwise license incompatibilities.
package licenses

import (
	"strings"

	"github.com/kompline/kompline/internal/model"
)

// Short identifiers of the two sentinel licenses. Every library whose license
// could not be determined ends up linked to one of these instead of failing.
const (
	UnknownShortID     = "Unknown"      // declaration present but not recognized
	NonLicensedShortID = "Non-Licensed" // no declaration at all
)

// Risk ladder levels, ordered by severity.
const (
	RiskLevelUnknown = iota
	RiskLevelPermissive
	RiskLevelLimitedCopyleft
	RiskLevelStrongCopyleft
	RiskLevelForbidden
)

// RiskLadder returns the ordered severity levels with display metadata.
// Index position equals LicenseRisk.Level.
func RiskLadder() []*model.LicenseRisk {
	return []*model.LicenseRisk{
		{Level: RiskLevelUnknown, Name: "Unknown", Color: "#808080"},
		{Level: RiskLevelPermissive, Name: "Permissive", Color: "#5cb85c"},
		{Level: RiskLevelLimitedCopyleft, Name: "Limited Copyleft", Color: "#f0ad4e"},
		{Level: RiskLevelStrongCopyleft, Name: "Strong Copyleft", Color: "#d9534f"},
		{Level: RiskLevelForbidden, Name: "Forbidden", Color: "#000000"},
	}
}

// Registry is the process-wide read-only license catalog. It is built once at
// startup and passed explicitly into the resolver, risk calculator and
// conflict matrix; nothing looks licenses up through ambient state.
type Registry struct {
	byShortID map[string]*model.License // lowercase short identifier -> license
	ladder    []*model.LicenseRisk

	unknown     *model.License
	nonLicensed *model.License

	requirements []model.Requirement
}

// NewRegistry builds a registry from a license catalog and a requirement
// catalog. The two sentinel licenses are created if the catalog does not
// already carry them.
func NewRegistry(catalog []*model.License, requirements []model.Requirement) *Registry {
	r := &Registry{
		byShortID:    make(map[string]*model.License, len(catalog)+2),
		ladder:       RiskLadder(),
		requirements: requirements,
	}

	for _, lic := range catalog {
		r.byShortID[strings.ToLower(lic.ShortIdentifier)] = lic
	}

	r.unknown = r.ensureSentinel(UnknownShortID)
	r.nonLicensed = r.ensureSentinel(NonLicensedShortID)
	return r
}

func (r *Registry) ensureSentinel(shortID string) *model.License {
	if lic, ok := r.byShortID[strings.ToLower(shortID)]; ok {
		return lic
	}
	lic := &model.License{
		ShortIdentifier: shortID,
		Risk:            r.ladder[RiskLevelUnknown],
	}
	r.byShortID[strings.ToLower(shortID)] = lic
	return lic
}

// Lookup finds a license by short identifier, case-insensitively.
func (r *Registry) Lookup(shortID string) (*model.License, bool) {
	lic, ok := r.byShortID[strings.ToLower(strings.TrimSpace(shortID))]
	return lic, ok
}

// Unknown returns the sentinel for "declared but not recognized".
func (r *Registry) Unknown() *model.License { return r.unknown }

// NonLicensed returns the sentinel for "no license declared".
func (r *Registry) NonLicensed() *model.License { return r.nonLicensed }

// UnknownRisk returns the lowest rung of the risk ladder.
func (r *Registry) UnknownRisk() *model.LicenseRisk { return r.ladder[RiskLevelUnknown] }

// RiskByLevel returns the risk for a ladder level, clamping out-of-range
// levels to Unknown.
func (r *Registry) RiskByLevel(level int) *model.LicenseRisk {
	if level < 0 || level >= len(r.ladder) {
		return r.ladder[RiskLevelUnknown]
	}
	return r.ladder[level]
}

// Ladder returns the full risk ladder, ordered by severity.
func (r *Registry) Ladder() []*model.LicenseRisk { return r.ladder }

// Requirements returns the compliance-requirement catalog.
func (r *Registry) Requirements() []model.Requirement { return r.requirements }

// All returns every license in the registry, sentinels included. Order is
// unspecified.
func (r *Registry) All() []*model.License {
	out := make([]*model.License, 0, len(r.byShortID))
	for _, lic := range r.byShortID {
		out = append(out, lic)
	}
	return out
}

// IsUnidentified reports whether lic is one of the two sentinel licenses.
func (r *Registry) IsUnidentified(lic *model.License) bool {
	if lic == nil {
		return true
	}
	return lic == r.unknown || lic == r.nonLicensed ||
		lic.ShortIdentifier == UnknownShortID ||
		lic.ShortIdentifier == NonLicensedShortID
}

// AllUnidentified reports whether every license in the set is a sentinel.
// An empty set counts as unidentified.
func (r *Registry) AllUnidentified(set []*model.License) bool {
	for _, lic := range set {
		if !r.IsUnidentified(lic) {
			return false
		}
	}
	return true
}

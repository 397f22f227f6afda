package licenses

import (
	"strings"

	"github.com/kompline/kompline/internal/model"
)

// Resolver derives a library's license chain and publish set from whatever
// license information the library carries. Resolve never fails: unresolvable
// input degrades to the sentinel licenses and a low-severity error-log entry.
type Resolver struct {
	reg *Registry
}

func NewResolver(reg *Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve normalizes the library's license fields in place. It is idempotent:
// running it twice on the same library produces the same state and no
// duplicate error-log entries.
func (r *Resolver) Resolve(lib *model.Library) {
	r.resolveChain(lib)
	r.repairPublishSet(lib)
	r.resolvePublishSet(lib)
}

// resolveChain (re-)derives the license chain from the free-text declaration
// when the chain is missing, or when it consists only of sentinel licenses
// while a real declaration is present (a later upload may have filled in
// OriginalLicense after an earlier run produced only sentinels).
func (r *Resolver) resolveChain(lib *model.Library) {
	hasText := strings.TrimSpace(lib.OriginalLicense) != ""

	switch {
	case len(lib.Licenses) == 0:
		if !hasText {
			lib.Licenses = []model.LicenseLink{{License: r.reg.NonLicensed()}}
			lib.LogProblem(model.IssueLicenseResolution,
				"no license declaration found, linked as "+NonLicensedShortID,
				model.SeverityLow)
			return
		}
		lib.Licenses = ParseExpression(lib.OriginalLicense, r.reg)
	case r.reg.AllUnidentified(model.ChainLicenses(lib.Licenses)) && hasText:
		lib.Licenses = ParseExpression(lib.OriginalLicense, r.reg)
	default:
		return
	}

	for _, link := range lib.Licenses {
		if link.License == r.reg.Unknown() {
			lib.LogProblem(model.IssueLicenseResolution,
				"license declaration "+strings.TrimSpace(lib.OriginalLicense)+" could not be fully identified",
				model.SeverityLow)
			break
		}
	}
}

// repairPublishSet guards against a prior bad write: a publish set of exactly
// {Unknown} while the chain itself carries identified licenses is stale and
// gets recomputed.
func (r *Resolver) repairPublishSet(lib *model.Library) {
	if len(lib.LicenseToPublish) != 1 {
		return
	}
	only := lib.LicenseToPublish[0]
	if only == nil || only.ShortIdentifier != UnknownShortID {
		return
	}
	if r.reg.AllUnidentified(model.ChainLicenses(lib.Licenses)) {
		return
	}
	lib.LicenseToPublish = nil
}

// resolvePublishSet recomputes LicenseToPublish from the chain when it is
// empty or reduces to sentinels only. Policy: a pure AND chain contributes
// every member; a chain containing OR contributes the single lowest-risk
// member (publish under the most permissive alternative).
func (r *Resolver) resolvePublishSet(lib *model.Library) {
	if len(lib.LicenseToPublish) > 0 && !r.reg.AllUnidentified(lib.LicenseToPublish) {
		return
	}

	members := model.ChainLicenses(lib.Licenses)
	if len(members) == 0 {
		lib.LicenseToPublish = []*model.License{r.reg.NonLicensed()}
		return
	}

	if model.ChainHasOr(lib.Licenses) {
		lib.LicenseToPublish = []*model.License{lowestRisk(members)}
		return
	}
	lib.LicenseToPublish = dedupLicenses(members)
}

// lowestRisk picks the least severe member of a non-empty license set. A nil
// risk counts as Unknown, the lowest rung, so an unidentified alternative
// still wins over a copyleft one.
func lowestRisk(members []*model.License) *model.License {
	best := members[0]
	for _, lic := range members[1:] {
		if best.Risk.Worse(lic.Risk) {
			best = lic
		}
	}
	return best
}

func dedupLicenses(members []*model.License) []*model.License {
	seen := make(map[string]bool, len(members))
	out := make([]*model.License, 0, len(members))
	for _, lic := range members {
		if lic == nil || seen[lic.ShortIdentifier] {
			continue
		}
		seen[lic.ShortIdentifier] = true
		out = append(out, lic)
	}
	return out
}

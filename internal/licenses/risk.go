package licenses

import "github.com/kompline/kompline/internal/model"

// RiskCalculator reduces a license set to a single worst-case risk level.
// Pure, no I/O; recomputed on every save that can change the publish set.
type RiskCalculator struct {
	reg *Registry
}

func NewRiskCalculator(reg *Registry) *RiskCalculator {
	return &RiskCalculator{reg: reg}
}

// Risk returns the maximum-severity risk among the set's members. An empty
// set, and any member without an assigned risk, maps to the Unknown risk.
func (c *RiskCalculator) Risk(set []*model.License) *model.LicenseRisk {
	worst := c.reg.UnknownRisk()
	for _, lic := range set {
		if lic == nil {
			continue
		}
		risk := lic.Risk
		if risk == nil {
			risk = c.reg.UnknownRisk()
		}
		if risk.Worse(worst) {
			worst = risk
		}
	}
	return worst
}

// Apply recomputes and stores the library's derived risk from its publish set.
func (c *RiskCalculator) Apply(lib *model.Library) {
	lib.LicenseRisk = c.Risk(lib.LicenseToPublish)
}

package fetch

import (
	"github.com/google/licensecheck"

	"github.com/kompline/kompline/internal/licenses"
	"github.com/kompline/kompline/internal/model"
)

// coverageThreshold is the minimum percentage of the text that must match
// known license wording before a classification is trusted.
const coverageThreshold = 75.0

// ClassifyLicenseText scans a fetched license file and maps the matched SPDX
// identifiers to catalog licenses. Text below the coverage threshold, or
// matching nothing in the catalog, classifies as Unknown.
func ClassifyLicenseText(text []byte, reg *licenses.Registry) []*model.License {
	if len(text) == 0 {
		return nil
	}

	cov := licensecheck.Scan(text)
	if cov.Percent < coverageThreshold {
		return []*model.License{reg.Unknown()}
	}

	var found []*model.License
	seen := map[string]bool{}
	for _, match := range cov.Match {
		if match.IsURL {
			continue
		}
		lic, ok := reg.Lookup(match.ID)
		if !ok {
			lic = reg.Unknown()
		}
		if seen[lic.ShortIdentifier] {
			continue
		}
		seen[lic.ShortIdentifier] = true
		found = append(found, lic)
	}
	if len(found) == 0 {
		return []*model.License{reg.Unknown()}
	}
	return found
}

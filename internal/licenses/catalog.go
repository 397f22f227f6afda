package licenses

import "github.com/kompline/kompline/internal/model"

// BuiltinRequirements is the default compliance-requirement catalog. The
// REQUIREMENT flavor of the OSS list derives one column per entry.
func BuiltinRequirements() []model.Requirement {
	return []model.Requirement{
		{ShortName: "Include-License-Text", Description: "Ship the full license text with the product"},
		{ShortName: "Include-Copyright", Description: "Reproduce copyright statements"},
		{ShortName: "Provide-Source", Description: "Offer the component's source code on request"},
		{ShortName: "State-Changes", Description: "Document modifications made to the component"},
		{ShortName: "No-Advertising", Description: "Do not use author names for promotion"},
	}
}

// BuiltinCatalog is the built-in license catalog used when the database does
// not yet carry one. Risk levels follow the usual compliance ladder; the
// conflict lists are stored once per pair and interpreted bidirectionally by
// ConflictMatrix.
func BuiltinCatalog() []*model.License {
	ladder := RiskLadder()
	permissive := ladder[RiskLevelPermissive]
	limited := ladder[RiskLevelLimitedCopyleft]
	strong := ladder[RiskLevelStrongCopyleft]

	return []*model.License{
		{
			ShortIdentifier: "MIT",
			SPDXIdentifier:  "MIT",
			Risk:            permissive,
			Requirements:    []string{"Include-License-Text", "Include-Copyright"},
		},
		{
			ShortIdentifier: "BSD-2-Clause",
			SPDXIdentifier:  "BSD-2-Clause",
			Risk:            permissive,
			Requirements:    []string{"Include-License-Text", "Include-Copyright"},
		},
		{
			ShortIdentifier: "BSD-3-Clause",
			SPDXIdentifier:  "BSD-3-Clause",
			Risk:            permissive,
			Requirements:    []string{"Include-License-Text", "Include-Copyright", "No-Advertising"},
		},
		{
			ShortIdentifier: "Apache-2.0",
			SPDXIdentifier:  "Apache-2.0",
			Risk:            permissive,
			Requirements:    []string{"Include-License-Text", "Include-Copyright", "State-Changes"},
			// Apache-2.0 code cannot be combined into a GPL-2.0-only work.
			Conflicts: []string{"GPL-2.0-only"},
		},
		{
			ShortIdentifier: "ISC",
			SPDXIdentifier:  "ISC",
			Risk:            permissive,
			Requirements:    []string{"Include-License-Text", "Include-Copyright"},
		},
		{
			ShortIdentifier: "Zlib",
			SPDXIdentifier:  "Zlib",
			Risk:            permissive,
			Requirements:    []string{"State-Changes"},
		},
		{
			ShortIdentifier: "MPL-2.0",
			SPDXIdentifier:  "MPL-2.0",
			Risk:            limited,
			Requirements:    []string{"Include-License-Text", "Provide-Source", "State-Changes"},
		},
		{
			ShortIdentifier: "EPL-1.0",
			SPDXIdentifier:  "EPL-1.0",
			Risk:            limited,
			Requirements:    []string{"Include-License-Text", "Provide-Source"},
			Conflicts:       []string{"GPL-2.0-only", "GPL-3.0-only"},
		},
		{
			ShortIdentifier: "EPL-2.0",
			SPDXIdentifier:  "EPL-2.0",
			Risk:            limited,
			Requirements:    []string{"Include-License-Text", "Provide-Source"},
			Conflicts:       []string{"GPL-2.0-only"},
		},
		{
			ShortIdentifier: "LGPL-2.1-only",
			SPDXIdentifier:  "LGPL-2.1-only",
			Risk:            limited,
			Requirements:    []string{"Include-License-Text", "Provide-Source", "State-Changes"},
		},
		{
			ShortIdentifier: "LGPL-3.0-only",
			SPDXIdentifier:  "LGPL-3.0-only",
			Risk:            limited,
			Requirements:    []string{"Include-License-Text", "Provide-Source", "State-Changes"},
			Conflicts:       []string{"GPL-2.0-only"},
		},
		{
			ShortIdentifier: "GPL-2.0-only",
			SPDXIdentifier:  "GPL-2.0-only",
			Risk:            strong,
			Requirements:    []string{"Include-License-Text", "Include-Copyright", "Provide-Source", "State-Changes"},
		},
		{
			ShortIdentifier: "GPL-3.0-only",
			SPDXIdentifier:  "GPL-3.0-only",
			Risk:            strong,
			Requirements:    []string{"Include-License-Text", "Include-Copyright", "Provide-Source", "State-Changes"},
			Conflicts:       []string{"GPL-2.0-only"},
		},
		{
			ShortIdentifier: "AGPL-3.0-only",
			SPDXIdentifier:  "AGPL-3.0-only",
			Risk:            strong,
			Requirements:    []string{"Include-License-Text", "Include-Copyright", "Provide-Source", "State-Changes"},
			Conflicts:       []string{"GPL-2.0-only"},
		},
		{
			ShortIdentifier: "CDDL-1.0",
			SPDXIdentifier:  "CDDL-1.0",
			Risk:            limited,
			Requirements:    []string{"Include-License-Text", "Provide-Source"},
			Conflicts:       []string{"GPL-2.0-only", "GPL-3.0-only"},
		},
	}
}

package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/package-url/packageurl-go"

	"github.com/kompline/kompline/internal/model"
)

// ---- CycloneDX 1.4 JSON schema types ----

type cdxBOM struct {
	BOMFormat    string         `json:"bomFormat"`
	SpecVersion  string         `json:"specVersion"`
	Version      int            `json:"version"`
	SerialNumber string         `json:"serialNumber"`
	Metadata     cdxMetadata    `json:"metadata"`
	Components   []cdxComponent `json:"components"`
}

type cdxMetadata struct {
	Timestamp string       `json:"timestamp"`
	Tools     []cdxTool    `json:"tools"`
	Component *cdxRootComp `json:"component,omitempty"`
}

type cdxRootComp struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type cdxTool struct {
	Vendor  string `json:"vendor"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type cdxComponent struct {
	Type      string       `json:"type"`
	Group     string       `json:"group,omitempty"`
	Name      string       `json:"name"`
	Version   string       `json:"version"`
	PURL      string       `json:"purl,omitempty"`
	Licenses  []cdxLicense `json:"licenses,omitempty"`
	Copyright string       `json:"copyright,omitempty"`
}

type cdxLicense struct {
	License cdxLicenseDetail `json:"license"`
}

type cdxLicenseDetail struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// BOMWriter serializes a project's libraries as a CycloneDX 1.4 JSON BOM.
// Now is injectable for deterministic output in tests.
type BOMWriter struct {
	ToolVersion string
	Now         func() time.Time
}

// Write serializes libs as the BOM of project.
func (w *BOMWriter) Write(out io.Writer, project *model.Project, libs []*model.Library) error {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}

	sorted := make([]*model.Library, len(libs))
	copy(sorted, libs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Version < sorted[j].Version
	})

	comps := make([]cdxComponent, 0, len(sorted))
	for _, lib := range sorted {
		comps = append(comps, toCDXComponent(lib))
	}

	bom := cdxBOM{
		BOMFormat:    "CycloneDX",
		SpecVersion:  "1.4",
		Version:      1,
		SerialNumber: "urn:uuid:" + uuid.NewString(),
		Metadata: cdxMetadata{
			Timestamp: now().UTC().Format(time.RFC3339),
			Tools: []cdxTool{
				{Vendor: "kompline", Name: "kompline", Version: w.ToolVersion},
			},
			Component: &cdxRootComp{
				Type:    "application",
				Name:    project.Name,
				Version: project.Version,
			},
		},
		Components: comps,
	}

	data, err := json.MarshalIndent(bom, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cyclonedx bom: %w", err)
	}
	data = append(data, '\n')
	_, err = out.Write(data)
	return err
}

func toCDXComponent(lib *model.Library) cdxComponent {
	comp := cdxComponent{
		Type:    "library",
		Group:   lib.Namespace,
		Name:    lib.Name,
		Version: lib.Version,
		PURL:    libraryPURL(lib),
	}
	if lib.Copyright != "" && lib.Copyright != model.NoCopyrightFound {
		comp.Copyright = lib.Copyright
	}

	for _, lic := range lib.LicenseToPublish {
		if lic == nil {
			continue
		}
		detail := cdxLicenseDetail{}
		if lic.SPDXIdentifier != "" {
			detail.ID = lic.SPDXIdentifier
		} else {
			detail.Name = lic.ShortIdentifier
		}
		switch lib.LicenseURL {
		case "", model.URLRateLimited, model.URLNotFound:
		default:
			detail.URL = lib.LicenseURL
		}
		comp.Licenses = append(comp.Licenses, cdxLicense{License: detail})
	}
	return comp
}

// libraryPURL derives a package url from the library identity. Types without
// a purl ecosystem mapping fall back to pkg:generic.
func libraryPURL(lib *model.Library) string {
	purlType := lib.Type
	switch purlType {
	case "":
		purlType = "generic"
	case "maven", "npm", "pypi", "nuget", "cargo", "gem", "conan", "golang":
	default:
		purlType = "generic"
	}
	purl := packageurl.NewPackageURL(purlType, lib.Namespace, lib.Name, lib.Version, nil, "")
	return purl.ToString()
}

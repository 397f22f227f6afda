package upload

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/package-url/packageurl-go"

	"github.com/kompline/kompline/internal/model"
)

// ---- CycloneDX XML schema subset ----

type bomDocument struct {
	XMLName    xml.Name       `xml:"bom"`
	Components []bomComponent `xml:"components>component"`
}

type bomComponent struct {
	Type     string       `xml:"type,attr"`
	Group    string       `xml:"group"`
	Name     string       `xml:"name"`
	Version  string       `xml:"version"`
	PURL     string       `xml:"purl"`
	Licenses []bomLicense `xml:"licenses>license"`
}

type bomLicense struct {
	ID         string `xml:"id"`
	Name       string `xml:"name"`
	Expression string `xml:"expression"`
}

// BOMLoader reads CycloneDX XML BOMs. Identity comes from the component purl
// when present (parsed through the packageurl library, not by hand) and falls
// back to the group/name/version elements otherwise.
type BOMLoader struct{}

func (l *BOMLoader) Name() string { return "cyclonedx-xml" }

func (l *BOMLoader) Load(data []byte) ([]*model.Library, error) {
	var doc bomDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing bom xml: %v", model.ErrValidation, err)
	}

	var libs []*model.Library
	for _, comp := range doc.Components {
		lib := &model.Library{
			Namespace: comp.Group,
			Name:      comp.Name,
			Version:   comp.Version,
		}

		if comp.PURL != "" {
			if purl, err := packageurl.FromString(comp.PURL); err == nil {
				lib.Type = purl.Type
				if purl.Namespace != "" {
					lib.Namespace = purl.Namespace
				}
				if purl.Name != "" {
					lib.Name = purl.Name
				}
				if purl.Version != "" {
					lib.Version = purl.Version
				}
			}
		}

		lib.OriginalLicense = bomLicenseText(comp.Licenses)

		if lib.Name == "" || lib.Version == "" {
			continue
		}
		libs = append(libs, lib)
	}
	return libs, nil
}

// bomLicenseText flattens a component's license list into one declaration
// string. Multiple entries are joined with AND; an explicit SPDX expression
// entry wins outright.
func bomLicenseText(entries []bomLicense) string {
	var parts []string
	for _, e := range entries {
		if e.Expression != "" {
			return e.Expression
		}
		switch {
		case e.ID != "":
			parts = append(parts, e.ID)
		case e.Name != "":
			parts = append(parts, e.Name)
		}
	}
	return strings.Join(parts, " AND ")
}

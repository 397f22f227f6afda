// Package export serializes libraries into the delivery formats: OSS lists
// for legal review and full library dumps for interchange.
package export

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/kompline/kompline/internal/model"
)

// Flavor selects which columns and rows an OSS list carries.
type Flavor string

const (
	// FlavorDefault lists every library with license, risk and urls.
	FlavorDefault Flavor = "DEFAULT"

	// FlavorPublish is the outward-facing list: one row per namespace+name
	// (the publishing obligation does not repeat per version), license
	// columns only.
	FlavorPublish Flavor = "PUBLISH"

	// FlavorRequirement extends the default list with one column per entry
	// of the compliance-requirement catalog.
	FlavorRequirement Flavor = "REQUIREMENT"
)

// Format selects the serialization of an OSS list.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// OSSListWriter renders OSS lists. Requirements feed the dynamic columns of
// the REQUIREMENT flavor.
type OSSListWriter struct {
	Requirements []model.Requirement
}

// Write renders libs as an OSS list of the given flavor and format. Unknown
// flavors and formats are rejected with ErrUnsupported.
func (w *OSSListWriter) Write(out io.Writer, libs []*model.Library, flavor Flavor, format Format) error {
	header, rows, err := w.table(libs, flavor)
	if err != nil {
		return err
	}

	switch format {
	case FormatCSV:
		return writeCSV(out, header, rows)
	case FormatHTML:
		return writeHTML(out, string(flavor), header, rows)
	default:
		return fmt.Errorf("%w: oss list format %q", model.ErrUnsupported, format)
	}
}

func (w *OSSListWriter) table(libs []*model.Library, flavor Flavor) ([]string, [][]string, error) {
	sorted := make([]*model.Library, len(libs))
	copy(sorted, libs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Namespace != sorted[j].Namespace {
			return sorted[i].Namespace < sorted[j].Namespace
		}
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Version < sorted[j].Version
	})

	switch flavor {
	case FlavorDefault:
		return defaultTable(sorted)
	case FlavorPublish:
		return publishTable(sorted)
	case FlavorRequirement:
		return w.requirementTable(sorted)
	default:
		return nil, nil, fmt.Errorf("%w: oss list flavor %q", model.ErrUnsupported, flavor)
	}
}

var defaultHeader = []string{
	"Namespace", "Name", "Version", "Type",
	"LicenseToPublish", "LicenseRisk", "SourceCodeURL", "LicenseURL",
}

func defaultTable(libs []*model.Library) ([]string, [][]string, error) {
	rows := make([][]string, 0, len(libs))
	for _, lib := range libs {
		rows = append(rows, []string{
			lib.Namespace, lib.Name, lib.Version, lib.Type,
			joinLicenses(lib.LicenseToPublish), riskName(lib), lib.SourceCodeURL, lib.LicenseURL,
		})
	}
	return defaultHeader, rows, nil
}

// publishTable collapses versions: one row per namespace+name, carrying the
// union of the publish licenses of all versions.
func publishTable(libs []*model.Library) ([]string, [][]string, error) {
	type entry struct {
		namespace, name string
		licenses        []string
		seen            map[string]bool
	}
	byKey := map[string]*entry{}
	var order []string

	for _, lib := range libs {
		key := lib.Namespace + "\x00" + lib.Name
		e, ok := byKey[key]
		if !ok {
			e = &entry{namespace: lib.Namespace, name: lib.Name, seen: map[string]bool{}}
			byKey[key] = e
			order = append(order, key)
		}
		for _, lic := range lib.LicenseToPublish {
			if lic == nil || e.seen[lic.ShortIdentifier] {
				continue
			}
			e.seen[lic.ShortIdentifier] = true
			e.licenses = append(e.licenses, lic.ShortIdentifier)
		}
	}

	rows := make([][]string, 0, len(order))
	for _, key := range order {
		e := byKey[key]
		rows = append(rows, []string{e.namespace, e.name, strings.Join(e.licenses, ", ")})
	}
	return []string{"Namespace", "Name", "LicenseToPublish"}, rows, nil
}

func (w *OSSListWriter) requirementTable(libs []*model.Library) ([]string, [][]string, error) {
	header := append([]string{}, defaultHeader...)
	for _, req := range w.Requirements {
		header = append(header, req.ShortName)
	}

	rows := make([][]string, 0, len(libs))
	for _, lib := range libs {
		row := []string{
			lib.Namespace, lib.Name, lib.Version, lib.Type,
			joinLicenses(lib.LicenseToPublish), riskName(lib), lib.SourceCodeURL, lib.LicenseURL,
		}
		carried := map[string]bool{}
		for _, lic := range lib.LicenseToPublish {
			if lic == nil {
				continue
			}
			for _, shortName := range lic.Requirements {
				carried[shortName] = true
			}
		}
		for _, req := range w.Requirements {
			if carried[req.ShortName] {
				row = append(row, "X")
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func writeCSV(out io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(out)
	cw.Comma = ';'
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var ossListTmpl = template.Must(template.New("osslist").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>OSS List ({{.Title}})</title></head>
<body>
<h1>OSS List ({{.Title}})</h1>
<table border="1">
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
</body>
</html>
`))

func writeHTML(out io.Writer, title string, header []string, rows [][]string) error {
	return ossListTmpl.Execute(out, struct {
		Title  string
		Header []string
		Rows   [][]string
	}{Title: title, Header: header, Rows: rows})
}

func joinLicenses(set []*model.License) string {
	ids := make([]string, 0, len(set))
	for _, lic := range set {
		if lic != nil {
			ids = append(ids, lic.ShortIdentifier)
		}
	}
	return strings.Join(ids, ", ")
}

func riskName(lib *model.Library) string {
	if lib.LicenseRisk == nil {
		return ""
	}
	return lib.LicenseRisk.Name
}

package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kompline/kompline/internal/model"
)

// libraryCSVHeader is the fixed column set of the library CSV dump. Order is
// part of the interchange contract; consumers address columns by position.
var libraryCSVHeader = []string{
	"Namespace", "Name", "Version", "Type",
	"OriginalLicense", "LicenseToPublish", "LicenseOfFiles", "LicenseRisk",
	"Copyright", "SourceCodeURL", "LicenseURL", "LicenseText",
	"Reviewed", "LastReviewedDate", "AddedManually", "EligibleForPublishing",
	"Comment", "ErrorLog", "Requirements", "CreatedDate",
}

// LibraryRow pairs a library with its per-project dependency attributes for
// export. Dep may be nil when exporting the global library pool.
type LibraryRow struct {
	Library *model.Library
	Dep     *model.Dependency
}

// WriteLibrariesCSV writes the full library dump.
func WriteLibrariesCSV(out io.Writer, rows []LibraryRow) error {
	cw := csv.NewWriter(out)
	cw.Comma = ';'
	if err := cw.Write(libraryCSVHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(libraryCSVRecord(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func libraryCSVRecord(row LibraryRow) []string {
	lib := row.Library

	addedManually, eligible, comment := "", "true", ""
	if row.Dep != nil {
		addedManually = formatBool(row.Dep.AddedManually)
		eligible = formatBool(row.Dep.EligibleForPublishing)
		comment = row.Dep.Comment
	}

	return []string{
		lib.Namespace, lib.Name, lib.Version, lib.Type,
		lib.OriginalLicense,
		joinLicenses(lib.LicenseToPublish),
		joinLicenses(lib.LicenseOfFiles),
		riskName(lib),
		lib.Copyright, lib.SourceCodeURL, lib.LicenseURL, lib.LicenseText,
		formatBool(lib.Reviewed), formatDate(lib.LastReviewedDate),
		addedManually, eligible, comment,
		formatErrorLog(lib.ErrorLog),
		strings.Join(requirementsOf(lib), ", "),
		formatDate(lib.CreatedDate),
	}
}

// jsonLibraryRow is the wire shape of one library in the JSON dump.
type jsonLibraryRow struct {
	Namespace        string                 `json:"namespace,omitempty"`
	Name             string                 `json:"name"`
	Version          string                 `json:"version"`
	Type             string                 `json:"type,omitempty"`
	OriginalLicense  string                 `json:"originalLicense,omitempty"`
	LicenseToPublish []string               `json:"licenseToPublish,omitempty"`
	LicenseOfFiles   []string               `json:"licenseOfFiles,omitempty"`
	LicenseRisk      string                 `json:"licenseRisk,omitempty"`
	Copyright        string                 `json:"copyright,omitempty"`
	SourceCodeURL    string                 `json:"sourceCodeUrl,omitempty"`
	LicenseURL       string                 `json:"licenseUrl,omitempty"`
	LicenseText      string                 `json:"licenseText,omitempty"`
	Reviewed         bool                   `json:"reviewed"`
	LastReviewedDate string                 `json:"lastReviewedDate,omitempty"`
	ErrorLog         []model.ErrorLogEntry  `json:"errorLog,omitempty"`
	Requirements     []string               `json:"requirements,omitempty"`
	CreatedDate      string                 `json:"createdDate,omitempty"`
	Dependency       *jsonDependencyDetails `json:"dependency,omitempty"`
}

type jsonDependencyDetails struct {
	AddedManually         bool   `json:"addedManually"`
	EligibleForPublishing bool   `json:"eligibleForPublishing"`
	Comment               string `json:"comment,omitempty"`
}

// WriteLibrariesJSON writes the full library dump as an indented JSON array.
func WriteLibrariesJSON(out io.Writer, rows []LibraryRow) error {
	wire := make([]jsonLibraryRow, 0, len(rows))
	for _, row := range rows {
		lib := row.Library
		entry := jsonLibraryRow{
			Namespace:        lib.Namespace,
			Name:             lib.Name,
			Version:          lib.Version,
			Type:             lib.Type,
			OriginalLicense:  lib.OriginalLicense,
			LicenseToPublish: shortIDList(lib.LicenseToPublish),
			LicenseOfFiles:   shortIDList(lib.LicenseOfFiles),
			LicenseRisk:      riskName(lib),
			Copyright:        lib.Copyright,
			SourceCodeURL:    lib.SourceCodeURL,
			LicenseURL:       lib.LicenseURL,
			LicenseText:      lib.LicenseText,
			Reviewed:         lib.Reviewed,
			LastReviewedDate: formatDate(lib.LastReviewedDate),
			ErrorLog:         lib.ErrorLog,
			Requirements:     requirementsOf(lib),
			CreatedDate:      formatDate(lib.CreatedDate),
		}
		if row.Dep != nil {
			entry.Dependency = &jsonDependencyDetails{
				AddedManually:         row.Dep.AddedManually,
				EligibleForPublishing: row.Dep.EligibleForPublishing,
				Comment:               row.Dep.Comment,
			}
		}
		wire = append(wire, entry)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(wire)
}

// WriteLibraries dispatches on format.
func WriteLibraries(out io.Writer, rows []LibraryRow, format Format) error {
	switch format {
	case FormatCSV:
		return WriteLibrariesCSV(out, rows)
	case FormatJSON:
		return WriteLibrariesJSON(out, rows)
	default:
		return fmt.Errorf("%w: library export format %q", model.ErrUnsupported, format)
	}
}

// requirementsOf returns the union of the requirement short names carried by
// the library's publish licenses, in first-seen order.
func requirementsOf(lib *model.Library) []string {
	var out []string
	seen := map[string]bool{}
	for _, lic := range lib.LicenseToPublish {
		if lic == nil {
			continue
		}
		for _, shortName := range lic.Requirements {
			if seen[shortName] {
				continue
			}
			seen[shortName] = true
			out = append(out, shortName)
		}
	}
	return out
}

func shortIDList(set []*model.License) []string {
	var out []string
	for _, lic := range set {
		if lic != nil {
			out = append(out, lic.ShortIdentifier)
		}
	}
	return out
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatErrorLog(entries []model.ErrorLogEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", e.Severity, e.Issue, e.Message))
	}
	return strings.Join(parts, " | ")
}

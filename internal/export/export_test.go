package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kompline/kompline/internal/licenses"
	"github.com/kompline/kompline/internal/model"
)

func exportFixture(t *testing.T) []*model.Library {
	t.Helper()
	reg := licenses.NewRegistry(licenses.BuiltinCatalog(), licenses.BuiltinRequirements())
	resolver := licenses.NewResolver(reg)
	risk := licenses.NewRiskCalculator(reg)

	libs := []*model.Library{
		{Namespace: "org.apache.commons", Name: "commons-lang3", Version: "3.14.0",
			Type: "maven", OriginalLicense: "Apache-2.0",
			SourceCodeURL: "https://example.com/lang3.zip"},
		{Namespace: "org.apache.commons", Name: "commons-lang3", Version: "3.12.0",
			Type: "maven", OriginalLicense: "Apache-2.0"},
		{Name: "linked-lib", Version: "1.0", Type: "conan",
			OriginalLicense: "GPL-2.0-only"},
	}
	for _, lib := range libs {
		resolver.Resolve(lib)
		risk.Apply(lib)
	}
	return libs
}

func parseCSV(t *testing.T, data string) [][]string {
	t.Helper()
	r := csv.NewReader(strings.NewReader(data))
	r.Comma = ';'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parsing exported csv: %v", err)
	}
	return rows
}

// ============================================================
// OSS lists
// ============================================================

func TestOSSList_DefaultCSV(t *testing.T) {
	var buf bytes.Buffer
	w := &OSSListWriter{}
	if err := w.Write(&buf, exportFixture(t), FlavorDefault, FormatCSV); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows := parseCSV(t, buf.String())
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	if rows[0][0] != "Namespace" || rows[0][4] != "LicenseToPublish" {
		t.Errorf("header = %v", rows[0])
	}
	// Sorted: blank namespace first, then versions ascending.
	if rows[1][1] != "linked-lib" || rows[2][2] != "3.12.0" || rows[3][2] != "3.14.0" {
		t.Errorf("row order wrong: %v", rows[1:])
	}
	if rows[1][5] != "Strong Copyleft" {
		t.Errorf("risk column = %q", rows[1][5])
	}
}

func TestOSSList_PublishDedupsByNamespaceAndName(t *testing.T) {
	var buf bytes.Buffer
	w := &OSSListWriter{}
	if err := w.Write(&buf, exportFixture(t), FlavorPublish, FormatCSV); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows := parseCSV(t, buf.String())
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 after version collapse", len(rows))
	}
	for _, row := range rows[1:] {
		if len(row) != 3 {
			t.Errorf("publish row has %d columns, want 3: %v", len(row), row)
		}
	}
}

func TestOSSList_RequirementColumns(t *testing.T) {
	reqs := licenses.BuiltinRequirements()
	var buf bytes.Buffer
	w := &OSSListWriter{Requirements: reqs}
	if err := w.Write(&buf, exportFixture(t), FlavorRequirement, FormatCSV); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows := parseCSV(t, buf.String())
	wantCols := len(defaultHeader) + len(reqs)
	if len(rows[0]) != wantCols {
		t.Fatalf("header has %d columns, want %d", len(rows[0]), wantCols)
	}

	// The GPL library must tick at least one requirement column.
	var gplRow []string
	for _, row := range rows[1:] {
		if row[1] == "linked-lib" {
			gplRow = row
		}
	}
	ticked := false
	for _, cell := range gplRow[len(defaultHeader):] {
		if cell == "X" {
			ticked = true
		}
	}
	if !ticked {
		t.Errorf("no requirement ticked for copyleft library: %v", gplRow)
	}
}

func TestOSSList_HTML(t *testing.T) {
	var buf bytes.Buffer
	w := &OSSListWriter{}
	if err := w.Write(&buf, exportFixture(t), FlavorDefault, FormatHTML); err != nil {
		t.Fatalf("Write: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "<table") || !strings.Contains(html, "commons-lang3") {
		t.Errorf("html output incomplete:\n%s", html)
	}
}

func TestOSSList_UnsupportedFormatAndFlavor(t *testing.T) {
	w := &OSSListWriter{}
	if err := w.Write(&bytes.Buffer{}, nil, FlavorDefault, Format("pdf")); !errors.Is(err, model.ErrUnsupported) {
		t.Errorf("format: expected ErrUnsupported, got %v", err)
	}
	if err := w.Write(&bytes.Buffer{}, nil, Flavor("LEGACY"), FormatCSV); !errors.Is(err, model.ErrUnsupported) {
		t.Errorf("flavor: expected ErrUnsupported, got %v", err)
	}
}

// ============================================================
// Library dump
// ============================================================

func libraryRows(t *testing.T) []LibraryRow {
	t.Helper()
	libs := exportFixture(t)
	rows := make([]LibraryRow, 0, len(libs))
	for i, lib := range libs {
		row := LibraryRow{Library: lib}
		if i == 0 {
			row.Dep = &model.Dependency{EligibleForPublishing: false, Comment: "internal fork"}
		}
		rows = append(rows, row)
	}
	return rows
}

func TestWriteLibrariesCSV_FixedHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLibrariesCSV(&buf, libraryRows(t)); err != nil {
		t.Fatalf("WriteLibrariesCSV: %v", err)
	}

	rows := parseCSV(t, buf.String())
	if len(rows[0]) != 20 {
		t.Fatalf("header has %d columns, want 20", len(rows[0]))
	}
	if rows[0][0] != "Namespace" || rows[0][19] != "CreatedDate" {
		t.Errorf("header = %v", rows[0])
	}
	// First data row carries the dependency attributes.
	if rows[1][15] != "false" || rows[1][16] != "internal fork" {
		t.Errorf("dependency columns = %q %q", rows[1][15], rows[1][16])
	}
}

func TestWriteLibrariesJSON_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLibrariesJSON(&buf, libraryRows(t)); err != nil {
		t.Fatalf("WriteLibrariesJSON: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("exported json does not parse: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("entries = %d, want 3", len(decoded))
	}
	if decoded[0]["name"] != "commons-lang3" {
		t.Errorf("first entry = %v", decoded[0])
	}
	if _, ok := decoded[0]["dependency"]; !ok {
		t.Error("dependency details missing from json dump")
	}
}

func TestWriteLibraries_UnsupportedFormat(t *testing.T) {
	err := WriteLibraries(&bytes.Buffer{}, nil, Format("yaml"))
	if !errors.Is(err, model.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

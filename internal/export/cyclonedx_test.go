package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kompline/kompline/internal/model"
)

func TestBOMWriter(t *testing.T) {
	libs := exportFixture(t)
	project := &model.Project{Name: "shop", Version: "2.0"}

	var buf bytes.Buffer
	w := &BOMWriter{
		ToolVersion: "1.0.0",
		Now:         func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	if err := w.Write(&buf, project, libs); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var bom map[string]any
	if err := json.Unmarshal(buf.Bytes(), &bom); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
	if bom["bomFormat"] != "CycloneDX" || bom["specVersion"] != "1.4" {
		t.Errorf("bom header = %v %v", bom["bomFormat"], bom["specVersion"])
	}
	if !strings.HasPrefix(bom["serialNumber"].(string), "urn:uuid:") {
		t.Errorf("serialNumber = %v", bom["serialNumber"])
	}

	meta := bom["metadata"].(map[string]any)
	if meta["timestamp"] != "2026-03-01T12:00:00Z" {
		t.Errorf("timestamp = %v", meta["timestamp"])
	}
	root := meta["component"].(map[string]any)
	if root["name"] != "shop" || root["version"] != "2.0" {
		t.Errorf("root component = %v", root)
	}

	comps := bom["components"].([]any)
	if len(comps) != 3 {
		t.Fatalf("components = %d, want 3", len(comps))
	}
	// Sorted by name: commons-lang3 x2 (versions ascending), then linked-lib.
	first := comps[0].(map[string]any)
	if first["name"] != "commons-lang3" || first["version"] != "3.12.0" {
		t.Errorf("first component = %v", first)
	}
	if first["purl"] != "pkg:maven/org.apache.commons/commons-lang3@3.12.0" {
		t.Errorf("purl = %v", first["purl"])
	}

	licenses := first["licenses"].([]any)
	lic := licenses[0].(map[string]any)["license"].(map[string]any)
	if lic["id"] != "Apache-2.0" {
		t.Errorf("license id = %v", lic["id"])
	}
}

func TestBOMWriter_GenericPURLFallback(t *testing.T) {
	lib := &model.Library{Name: "libfoo", Version: "0.9", Type: "conan2"}
	project := &model.Project{Name: "fw", Version: "1"}

	var buf bytes.Buffer
	if err := (&BOMWriter{ToolVersion: "1.0.0"}).Write(&buf, project, []*model.Library{lib}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "pkg:generic/libfoo@0.9") {
		t.Errorf("unknown ecosystem did not fall back to generic purl:\n%s", buf.String())
	}
}

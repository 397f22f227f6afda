package fetch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kompline/kompline/internal/licenses"
	"github.com/kompline/kompline/internal/model"
)

const mitText = `MIT License

Copyright (c) 2021 Example Authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
`

func testClient() *Client {
	c := NewClient()
	c.RetryDelay = 1 // effectively immediate
	return c
}

// ============================================================
// Client
// ============================================================

func TestGet_RetriesOnceOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := testClient().Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "ok" || calls.Load() != 2 {
		t.Errorf("body=%q calls=%d, want ok after exactly one retry", body, calls.Load())
	}
}

func TestGet_RateLimitIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient().Get(context.Background(), srv.URL)
	if !errors.Is(err, model.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("rate-limited request was retried: %d calls", calls.Load())
	}
}

func TestGet_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := testClient().Get(context.Background(), srv.URL)
	if !errors.Is(err, model.ErrUnresolved) {
		t.Errorf("expected ErrUnresolved, got %v", err)
	}
}

// ============================================================
// Classification
// ============================================================

func TestClassifyLicenseText(t *testing.T) {
	reg := licenses.NewRegistry(licenses.BuiltinCatalog(), licenses.BuiltinRequirements())

	found := ClassifyLicenseText([]byte(mitText), reg)
	if len(found) != 1 || found[0].ShortIdentifier != "MIT" {
		ids := make([]string, 0, len(found))
		for _, l := range found {
			ids = append(ids, l.ShortIdentifier)
		}
		t.Errorf("classified %v, want exactly MIT", ids)
	}
}

func TestClassifyLicenseText_UnrecognizedText(t *testing.T) {
	reg := licenses.NewRegistry(licenses.BuiltinCatalog(), licenses.BuiltinRequirements())

	found := ClassifyLicenseText([]byte("all rights reserved, call legal before use"), reg)
	if len(found) != 1 || found[0] != reg.Unknown() {
		t.Errorf("unrecognized text must classify as Unknown, got %v", found)
	}
}

func TestClassifyLicenseText_Empty(t *testing.T) {
	reg := licenses.NewRegistry(licenses.BuiltinCatalog(), licenses.BuiltinRequirements())
	if found := ClassifyLicenseText(nil, reg); found != nil {
		t.Errorf("empty text must classify as nothing, got %v", found)
	}
}

// ============================================================
// Enricher
// ============================================================

func TestEnrichLicense_FillsTextAndFileLicenses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mitText))
	}))
	defer srv.Close()

	reg := licenses.NewRegistry(licenses.BuiltinCatalog(), licenses.BuiltinRequirements())
	e := &Enricher{Client: testClient(), Registry: reg}

	lib := &model.Library{Name: "demo", Version: "1.0", LicenseURL: srv.URL}
	if err := e.EnrichLicense(context.Background(), lib); err != nil {
		t.Fatalf("EnrichLicense: %v", err)
	}
	if lib.LicenseText != mitText {
		t.Error("license text not stored")
	}
	if len(lib.LicenseOfFiles) != 1 || lib.LicenseOfFiles[0].ShortIdentifier != "MIT" {
		t.Errorf("file licenses = %v", lib.LicenseOfFiles)
	}
}

func TestEnrichLicense_UnwrapsGithubAPIEnvelope(t *testing.T) {
	// The GitHub license API chunks its base64 content with newlines.
	encoded := base64.StdEncoding.EncodeToString([]byte(mitText))
	var chunked strings.Builder
	for len(encoded) > 60 {
		chunked.WriteString(encoded[:60])
		chunked.WriteString("\n")
		encoded = encoded[60:]
	}
	chunked.WriteString(encoded)

	envelope, err := json.Marshal(map[string]any{
		"name":     "LICENSE",
		"content":  chunked.String(),
		"encoding": "base64",
		"license":  map[string]string{"spdx_id": "MIT"},
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(envelope)
	}))
	defer srv.Close()

	reg := licenses.NewRegistry(licenses.BuiltinCatalog(), licenses.BuiltinRequirements())
	e := &Enricher{Client: testClient(), Registry: reg}

	lib := &model.Library{Name: "demo", Version: "1.0", LicenseURL: srv.URL}
	if err := e.EnrichLicense(context.Background(), lib); err != nil {
		t.Fatalf("EnrichLicense: %v", err)
	}
	if lib.LicenseText != mitText {
		t.Errorf("license text = %q, want decoded MIT text", lib.LicenseText)
	}
	if len(lib.LicenseOfFiles) != 1 || lib.LicenseOfFiles[0].ShortIdentifier != "MIT" {
		t.Errorf("file licenses = %v", lib.LicenseOfFiles)
	}
}

func TestEnrichLicense_MalformedEnvelopePassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": "%%% not base64", "encoding": "base64"}`))
	}))
	defer srv.Close()

	reg := licenses.NewRegistry(licenses.BuiltinCatalog(), licenses.BuiltinRequirements())
	e := &Enricher{Client: testClient(), Registry: reg}

	lib := &model.Library{Name: "demo", Version: "1.0", LicenseURL: srv.URL}
	if err := e.EnrichLicense(context.Background(), lib); err != nil {
		t.Fatalf("EnrichLicense: %v", err)
	}
	if !strings.Contains(lib.LicenseText, "not base64") {
		t.Errorf("license text = %q, want raw body kept", lib.LicenseText)
	}
}

func TestEnrichLicense_RateLimitSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	reg := licenses.NewRegistry(licenses.BuiltinCatalog(), licenses.BuiltinRequirements())
	e := &Enricher{Client: testClient(), Registry: reg}

	lib := &model.Library{Name: "demo", Version: "1.0", LicenseURL: srv.URL}
	if err := e.EnrichLicense(context.Background(), lib); err != nil {
		t.Fatalf("EnrichLicense: %v", err)
	}
	if lib.LicenseURL != model.URLRateLimited {
		t.Errorf("license url = %q, want rate-limited sentinel", lib.LicenseURL)
	}

	// A sentinel url is never fetched again.
	if err := e.EnrichLicense(context.Background(), lib); err != nil {
		t.Fatalf("EnrichLicense on sentinel: %v", err)
	}
}

func TestEnrichLicense_NotFoundSentinel(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	reg := licenses.NewRegistry(licenses.BuiltinCatalog(), licenses.BuiltinRequirements())
	e := &Enricher{Client: testClient(), Registry: reg}

	lib := &model.Library{Name: "demo", Version: "1.0", LicenseURL: srv.URL}
	if err := e.EnrichLicense(context.Background(), lib); err != nil {
		t.Fatalf("EnrichLicense: %v", err)
	}
	if lib.LicenseURL != model.URLNotFound {
		t.Errorf("license url = %q, want not-found sentinel", lib.LicenseURL)
	}
}

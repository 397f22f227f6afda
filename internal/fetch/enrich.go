package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kompline/kompline/internal/licenses"
	"github.com/kompline/kompline/internal/model"
)

// Enricher fetches a library's declared license URL and fills in the license
// text and the set of licenses actually found in the file.
type Enricher struct {
	Client   *Client
	Registry *licenses.Registry
}

// EnrichLicense fetches lib.LicenseURL and stores text and classification.
// A throttled or missing URL is recorded in place of the URL itself so review
// surfaces it; neither is an error to the caller, the library simply stays
// unenriched.
func (e *Enricher) EnrichLicense(ctx context.Context, lib *model.Library) error {
	switch lib.LicenseURL {
	case "", model.URLRateLimited, model.URLNotFound:
		return nil
	}

	body, err := e.Client.Get(ctx, lib.LicenseURL)
	switch {
	case errors.Is(err, model.ErrRateLimited):
		lib.LicenseURL = model.URLRateLimited
		return nil
	case errors.Is(err, model.ErrUnresolved):
		lib.LicenseURL = model.URLNotFound
		return nil
	case err != nil:
		return err
	}

	body = unwrapLicensePayload(body)
	lib.LicenseText = string(body)
	lib.LicenseOfFiles = ClassifyLicenseText(body, e.Registry)
	return nil
}

// licensePayload is the JSON envelope the GitHub license API wraps file
// contents in. The url autocompletion points GitHub-hosted libraries at that
// API, so enrichment has to unwrap the envelope before classifying.
type licensePayload struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// unwrapLicensePayload extracts the license text from an API envelope. Plain
// text bodies, and anything that fails to decode, pass through unchanged.
func unwrapLicensePayload(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return body
	}

	var payload licensePayload
	if err := json.Unmarshal(trimmed, &payload); err != nil || payload.Content == "" {
		return body
	}
	if payload.Encoding != "base64" {
		return []byte(payload.Content)
	}

	// The API chunks the base64 stream with embedded newlines.
	compact := strings.NewReplacer("\n", "", "\r", "").Replace(payload.Content)
	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return body
	}
	return decoded
}

package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"

	"github.com/kompline/kompline/internal/model"
)

// Bundle layout: top-level directories inside the delivery ZIP.
const (
	dirLicenseTexts = "License_Texts/"
	dirFiles        = "Files/"
	dirCopyrights   = "Copyrights/"
)

// bundleCSS is the shared stylesheet referenced by every HTML fragment.
const bundleCSS = `body { font-family: sans-serif; margin: 2em; }
h1, h2 { color: #333; }
table { border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 4px 8px; text-align: left; }
pre { white-space: pre-wrap; background: #f6f6f6; padding: 1em; }
`

var fragmentTmpl = template.Must(template.New("fragment").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8">
<link rel="stylesheet" href="../Files/style.css">
<title>{{.Title}}</title></head>
<body>
<h2>{{.Title}}</h2>
<pre>{{.Body}}</pre>
</body></html>
`))

var overviewTmpl = template.Must(template.New("overview").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8">
<link rel="stylesheet" href="Files/style.css">
<title>OSS Disclosure {{.Project}}</title></head>
<body>
<h1>Open Source Software Disclosure - {{.Project}}</h1>
<p>Bundle {{.Serial}}, generated {{.Generated}}</p>
{{if .Disclaimer}}<p>{{.Disclaimer}}</p>{{end}}
<table>
<tr>{{if .WithNamespace}}<th>Namespace</th>{{end}}<th>Name</th><th>Version</th><th>Licenses</th></tr>
{{range .Rows}}<tr>{{if $.WithNamespace}}<td>{{.Namespace}}</td>{{end}}<td>{{.Name}}</td><td>{{.Version}}</td><td>{{.Licenses}}</td></tr>
{{end}}</table>
</body></html>
`))

type overviewRow struct {
	Namespace string
	Name      string
	Version   string
	Licenses  string
}

// BundleBuilder assembles the downloadable license ZIP for a project: one
// license-text fragment per library variant, copyright fragments, the shared
// stylesheet and an overview page.
type BundleBuilder struct {
	Now func() time.Time // defaults to time.Now
}

// Build produces the ZIP byte stream for the given project and its selected
// libraries. Libraries sharing a label (several versions of the same
// component) become numbered variants {label}_{n}; a library whose publish
// set carries more than one generic license text gets one fragment per
// license, suffixed with the license short identifier.
func (b *BundleBuilder) Build(project *model.Project, libs []*model.Library) ([]byte, error) {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if err := writeZipFile(zw, dirFiles+"style.css", []byte(bundleCSS)); err != nil {
		return nil, err
	}

	variant := map[string]int{} // label -> next variant number
	var rows []overviewRow
	withNamespace := false

	for _, lib := range libs {
		label := lib.Label()
		n := variant[label]
		variant[label] = n + 1
		base := fmt.Sprintf("%s_%d", sanitizeName(label), n)

		if err := b.writeLicenseFragments(zw, lib, base); err != nil {
			return nil, err
		}
		if err := b.writeCopyrightFragment(zw, lib, base); err != nil {
			return nil, err
		}

		if lib.Namespace != "" {
			withNamespace = true
		}
		rows = append(rows, overviewRow{
			Namespace: lib.Namespace,
			Name:      lib.Name,
			Version:   lib.Version,
			Licenses:  joinShortIDs(lib.LicenseToPublish),
		})
	}

	var overview bytes.Buffer
	err := overviewTmpl.Execute(&overview, map[string]any{
		"Project":       project.Name + " " + project.Version,
		"Serial":        uuid.NewString(),
		"Generated":     now().UTC().Format(time.RFC3339),
		"Disclaimer":    project.Disclaimer,
		"WithNamespace": withNamespace,
		"Rows":          rows,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering bundle overview: %w", err)
	}
	if err := writeZipFile(zw, "OSS_Disclosure.html", overview.Bytes()); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing bundle zip: %w", err)
	}
	return buf.Bytes(), nil
}

// writeLicenseFragments writes the library's license text under
// License_Texts/. The library's own downloaded text wins; otherwise the
// generic text of each published license is used. Multiple generic texts
// produce one fragment each, suffixed by license short identifier.
func (b *BundleBuilder) writeLicenseFragments(zw *zip.Writer, lib *model.Library, base string) error {
	title := lib.Name + " " + lib.Version

	if lib.LicenseText != "" {
		return b.writeFragment(zw, dirLicenseTexts+base+".html", title, lib.LicenseText)
	}

	withText := make([]*model.License, 0, len(lib.LicenseToPublish))
	for _, lic := range lib.LicenseToPublish {
		if lic != nil && lic.GenericLicenseText != "" {
			withText = append(withText, lic)
		}
	}

	switch len(withText) {
	case 0:
		return b.writeFragment(zw, dirLicenseTexts+base+".html", title,
			"No license text available for "+joinShortIDs(lib.LicenseToPublish))
	case 1:
		return b.writeFragment(zw, dirLicenseTexts+base+".html", title, withText[0].GenericLicenseText)
	default:
		for _, lic := range withText {
			name := fmt.Sprintf("%s%s_%s.html", dirLicenseTexts, base, sanitizeName(lic.ShortIdentifier))
			if err := b.writeFragment(zw, name, title+" - "+lic.ShortIdentifier, lic.GenericLicenseText); err != nil {
				return err
			}
		}
		return nil
	}
}

func (b *BundleBuilder) writeCopyrightFragment(zw *zip.Writer, lib *model.Library, base string) error {
	body := lib.Copyright
	if body == "" {
		body = model.NoCopyrightFound
	}
	return b.writeFragment(zw, dirCopyrights+base+".html", lib.Name+" "+lib.Version, body)
}

func (b *BundleBuilder) writeFragment(zw *zip.Writer, name, title, body string) error {
	var buf bytes.Buffer
	if err := fragmentTmpl.Execute(&buf, map[string]string{"Title": title, "Body": body}); err != nil {
		return fmt.Errorf("rendering fragment %s: %w", name, err)
	}
	return writeZipFile(zw, name, buf.Bytes())
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating %s in bundle: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s in bundle: %w", name, err)
	}
	return nil
}

// sanitizeName makes a label safe as a file name inside the bundle.
func sanitizeName(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch b := s[i]; b {
		case ':', '/', '\\', ' ':
			out = append(out, '_')
		default:
			out = append(out, b)
		}
	}
	return string(out)
}

func joinShortIDs(set []*model.License) string {
	var out string
	for i, lic := range set {
		if lic == nil {
			continue
		}
		if i > 0 {
			out += ", "
		}
		out += lic.ShortIdentifier
	}
	return out
}

// Package upload turns raw dependency files into libraries and runs the
// project ingestion flow: filter, dedup, license resolution, risk assignment.
package upload

import (
	"fmt"

	"github.com/kompline/kompline/internal/model"
)

// Loader is the interface every upload format must implement. A loader turns
// raw bytes into partially-populated libraries; identity fields must be set,
// everything else is best effort.
type Loader interface {
	Name() string
	Load(data []byte) ([]*model.Library, error)
}

// Loaders dispatches on MIME type. Unrecognized types are rejected with the
// typed ErrUnsupported, never coerced into a guess.
type Loaders struct {
	byMIME map[string]Loader
}

// NewLoaders wires the default format set.
func NewLoaders() *Loaders {
	l := &Loaders{byMIME: make(map[string]Loader)}

	csv := &CSVLoader{}
	l.Register(csv, "text/csv", "application/csv")

	jsonLoader := &JSONLoader{}
	l.Register(jsonLoader, "application/json")

	bom := &BOMLoader{}
	l.Register(bom, "text/xml", "application/xml")

	arch := &ArchiveLoader{BOM: bom, CSV: csv}
	l.Register(arch, "application/zip", "application/java-archive",
		"application/x-tar", "application/gzip")

	return l
}

// Register maps one loader to one or more MIME types.
func (l *Loaders) Register(loader Loader, mimeTypes ...string) {
	for _, mt := range mimeTypes {
		l.byMIME[mt] = loader
	}
}

// ForMIME returns the loader for a MIME type.
func (l *Loaders) ForMIME(mimeType string) (Loader, error) {
	loader, ok := l.byMIME[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: no loader for MIME type %q", model.ErrUnsupported, mimeType)
	}
	return loader, nil
}

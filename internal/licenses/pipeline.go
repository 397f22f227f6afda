package licenses

import (
	"fmt"
	"strings"

	"github.com/kompline/kompline/internal/model"
)

// Step is one pure library transformation applied during ingestion. Steps are
// data: the pipeline is an explicit ordered slice, selected statically, not a
// dispatch hierarchy.
type Step struct {
	Name  string
	Apply func(lib *model.Library)
}

// Pipeline applies its steps to a library in order.
type Pipeline struct {
	Steps []Step
}

func (p *Pipeline) Run(lib *model.Library) {
	for _, step := range p.Steps {
		step.Apply(lib)
	}
}

// DefaultPipeline is the autocompletion chain run on every incoming library
// before license resolution. Order matters: identity cleanup first, then the
// ecosystem-specific URL fill-ins that depend on clean identity fields.
func DefaultPipeline() *Pipeline {
	return &Pipeline{Steps: []Step{
		{Name: "trim-fields", Apply: trimFields},
		{Name: "source-url-autocomplete", Apply: autocompleteSourceURL},
		{Name: "license-url-autocomplete", Apply: autocompleteLicenseURL},
	}}
}

func trimFields(lib *model.Library) {
	lib.Namespace = strings.TrimSpace(lib.Namespace)
	lib.Name = strings.TrimSpace(lib.Name)
	lib.Version = strings.TrimSpace(lib.Version)
	lib.Type = strings.ToLower(strings.TrimSpace(lib.Type))
	lib.OriginalLicense = strings.TrimSpace(lib.OriginalLicense)
}

// autocompleteSourceURL fills in a source-archive URL for ecosystems with a
// predictable registry layout. Libraries that already carry a URL (sentinel
// or not) are left alone.
func autocompleteSourceURL(lib *model.Library) {
	if lib.SourceCodeURL != "" || lib.Name == "" || lib.Version == "" {
		return
	}

	switch lib.Type {
	case "maven":
		if lib.Namespace == "" {
			return
		}
		group := strings.ReplaceAll(lib.Namespace, ".", "/")
		lib.SourceCodeURL = fmt.Sprintf(
			"https://repo1.maven.org/maven2/%s/%s/%s/%s-%s-sources.jar",
			group, lib.Name, lib.Version, lib.Name, lib.Version)
	case "npm":
		name := lib.Name
		if lib.Namespace != "" {
			name = lib.Namespace + "/" + lib.Name
		}
		lib.SourceCodeURL = fmt.Sprintf(
			"https://registry.npmjs.org/%s/-/%s-%s.tgz",
			name, lib.Name, lib.Version)
	case "github":
		if lib.Namespace == "" {
			return
		}
		lib.SourceCodeURL = fmt.Sprintf(
			"https://github.com/%s/%s/archive/refs/tags/%s.zip",
			lib.Namespace, lib.Name, lib.Version)
	}
}

// autocompleteLicenseURL derives a license URL from a GitHub source URL.
// Other hosts have no predictable license location, so they stay empty until
// the fetch layer resolves one.
func autocompleteLicenseURL(lib *model.Library) {
	if lib.LicenseURL != "" {
		return
	}
	url := lib.SourceCodeURL
	if !strings.HasPrefix(url, "https://github.com/") {
		return
	}
	trimmed := strings.TrimPrefix(url, "https://github.com/")
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) < 2 {
		return
	}
	lib.LicenseURL = fmt.Sprintf("https://api.github.com/repos/%s/%s/license", parts[0], parts[1])
}

package upload

import (
	"encoding/json"
	"fmt"

	"github.com/kompline/kompline/internal/model"
)

// jsonLibrary is the wire shape of one dependency in the JSON upload format.
type jsonLibrary struct {
	Namespace     string `json:"namespace"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	Type          string `json:"type"`
	License       string `json:"license"`
	SourceCodeURL string `json:"sourceCodeUrl"`
	LicenseURL    string `json:"licenseUrl"`
}

// JSONLoader reads a JSON array of dependency objects.
type JSONLoader struct{}

func (l *JSONLoader) Name() string { return "json" }

func (l *JSONLoader) Load(data []byte) ([]*model.Library, error) {
	var entries []jsonLibrary
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: parsing dependency json: %v", model.ErrValidation, err)
	}

	var libs []*model.Library
	for _, e := range entries {
		if e.Name == "" || e.Version == "" {
			continue
		}
		libs = append(libs, &model.Library{
			Namespace:       e.Namespace,
			Name:            e.Name,
			Version:         e.Version,
			Type:            e.Type,
			OriginalLicense: e.License,
			SourceCodeURL:   e.SourceCodeURL,
			LicenseURL:      e.LicenseURL,
		})
	}
	return libs, nil
}

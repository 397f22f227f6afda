package upload

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/kompline/kompline/internal/model"
)

// CSVLoader reads the `;`-delimited dependency list format. The first row is
// a header; column order is free, columns are matched by name. Namespace,
// Type and License are optional, Name and Version are required.
type CSVLoader struct{}

func (l *CSVLoader) Name() string { return "csv" }

func (l *CSVLoader) Load(data []byte) ([]*model.Library, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading dependency csv: %v", model.ErrValidation, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: dependency csv is empty", model.ErrValidation)
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	nameIdx, okName := cols["name"]
	versionIdx, okVersion := cols["version"]
	if !okName || !okVersion {
		return nil, fmt.Errorf("%w: dependency csv is missing Name or Version header", model.ErrValidation)
	}

	field := func(record []string, col string) string {
		idx, ok := cols[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var libs []*model.Library
	for _, record := range records[1:] {
		if nameIdx >= len(record) || versionIdx >= len(record) {
			continue
		}
		name := strings.TrimSpace(record[nameIdx])
		version := strings.TrimSpace(record[versionIdx])
		if name == "" || version == "" {
			continue
		}
		libs = append(libs, &model.Library{
			Namespace:       field(record, "namespace"),
			Name:            name,
			Version:         version,
			Type:            field(record, "type"),
			OriginalLicense: field(record, "license"),
			SourceCodeURL:   field(record, "sourcecodeurl"),
		})
	}
	return libs, nil
}

package store

import (
	"encoding/json"

	"github.com/kompline/kompline/internal/licenses"
	"github.com/kompline/kompline/internal/model"
)

// chainLink is the persisted shape of one license chain link. Only the short
// identifier is stored; the license record itself is rehydrated through the
// registry on read.
type chainLink struct {
	ShortID string `json:"shortId"`
	OrderID int    `json:"orderId"`
	Join    string `json:"join,omitempty"`
}

func encodeChain(links []model.LicenseLink) string {
	if len(links) == 0 {
		return ""
	}
	out := make([]chainLink, 0, len(links))
	for _, l := range links {
		var shortID string
		if l.License != nil {
			shortID = l.License.ShortIdentifier
		}
		out = append(out, chainLink{ShortID: shortID, OrderID: l.OrderID, Join: string(l.Join)})
	}
	data, _ := json.Marshal(out)
	return string(data)
}

func decodeChain(data string, reg *licenses.Registry) []model.LicenseLink {
	if data == "" {
		return nil
	}
	var rows []chainLink
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil
	}
	links := make([]model.LicenseLink, 0, len(rows))
	for _, r := range rows {
		links = append(links, model.LicenseLink{
			License: rehydrate(r.ShortID, reg),
			OrderID: r.OrderID,
			Join:    model.JoinType(r.Join),
		})
	}
	return links
}

func encodeLicenseSet(set []*model.License) string {
	if len(set) == 0 {
		return ""
	}
	ids := make([]string, 0, len(set))
	for _, l := range set {
		if l != nil {
			ids = append(ids, l.ShortIdentifier)
		}
	}
	data, _ := json.Marshal(ids)
	return string(data)
}

func decodeLicenseSet(data string, reg *licenses.Registry) []*model.License {
	if data == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil
	}
	set := make([]*model.License, 0, len(ids))
	for _, id := range ids {
		set = append(set, rehydrate(id, reg))
	}
	return set
}

// rehydrate maps a stored short identifier back to the registry's license
// record. Identifiers no longer present in the catalog come back as Unknown
// rather than nil so downstream risk math stays total.
func rehydrate(shortID string, reg *licenses.Registry) *model.License {
	if lic, ok := reg.Lookup(shortID); ok {
		return lic
	}
	return reg.Unknown()
}

func encodeErrorLog(entries []model.ErrorLogEntry) string {
	if len(entries) == 0 {
		return ""
	}
	data, _ := json.Marshal(entries)
	return string(data)
}

func decodeErrorLog(data string) []model.ErrorLogEntry {
	if data == "" {
		return nil
	}
	var entries []model.ErrorLogEntry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return nil
	}
	return entries
}

func toLibraryModel(lib *model.Library) LibraryModel {
	m := LibraryModel{
		ID:        lib.ID,
		Namespace: lib.Namespace,
		Name:      lib.Name,
		Version:   lib.Version,
		Type:      lib.Type,

		OriginalLicense:  lib.OriginalLicense,
		LicenseChain:     encodeChain(lib.Licenses),
		LicenseToPublish: encodeLicenseSet(lib.LicenseToPublish),
		LicenseOfFiles:   encodeLicenseSet(lib.LicenseOfFiles),

		Copyright:     lib.Copyright,
		SourceCodeURL: lib.SourceCodeURL,
		LicenseURL:    lib.LicenseURL,
		LicenseText:   lib.LicenseText,
		ErrorLog:      encodeErrorLog(lib.ErrorLog),

		Reviewed: lib.Reviewed,
	}
	if lib.LicenseRisk != nil {
		m.RiskName = lib.LicenseRisk.Name
	}
	if !lib.LastReviewedDate.IsZero() {
		t := lib.LastReviewedDate
		m.LastReviewedDate = &t
	}
	return m
}

func fromLibraryModel(m *LibraryModel, reg *licenses.Registry) *model.Library {
	lib := &model.Library{
		ID:        m.ID,
		Namespace: m.Namespace,
		Name:      m.Name,
		Version:   m.Version,
		Type:      m.Type,

		OriginalLicense:  m.OriginalLicense,
		Licenses:         decodeChain(m.LicenseChain, reg),
		LicenseToPublish: decodeLicenseSet(m.LicenseToPublish, reg),
		LicenseOfFiles:   decodeLicenseSet(m.LicenseOfFiles, reg),

		Copyright:     m.Copyright,
		SourceCodeURL: m.SourceCodeURL,
		LicenseURL:    m.LicenseURL,
		LicenseText:   m.LicenseText,
		ErrorLog:      decodeErrorLog(m.ErrorLog),

		Reviewed:    m.Reviewed,
		CreatedDate: m.CreatedAt,
	}
	if m.RiskName != "" {
		lib.LicenseRisk = riskByName(m.RiskName, reg)
	}
	if m.LastReviewedDate != nil {
		lib.LastReviewedDate = *m.LastReviewedDate
	}
	return lib
}

func riskByName(name string, reg *licenses.Registry) *model.LicenseRisk {
	for _, risk := range reg.Ladder() {
		if risk.Name == name {
			return risk
		}
	}
	return reg.UnknownRisk()
}

func toProjectModel(p *model.Project) ProjectModel {
	m := ProjectModel{
		ID:                p.ID,
		Name:              p.Name,
		Version:           p.Version,
		PreviousProjectID: p.PreviousProjectID,
		Disclaimer:        p.Disclaimer,
		UploadFilter:      p.UploadFilter,
		UploadState:       string(p.UploadState),
		Delivered:         p.Delivered,
	}
	if m.UploadState == "" {
		m.UploadState = string(model.UploadIdle)
	}
	if !p.DeliveredDate.IsZero() {
		t := p.DeliveredDate
		m.DeliveredDate = &t
	}
	return m
}

func fromProjectModel(m *ProjectModel) *model.Project {
	p := &model.Project{
		ID:                m.ID,
		Name:              m.Name,
		Version:           m.Version,
		PreviousProjectID: m.PreviousProjectID,
		Disclaimer:        m.Disclaimer,
		UploadFilter:      m.UploadFilter,
		UploadState:       model.UploadState(m.UploadState),
		Delivered:         m.Delivered,
		CreatedDate:       m.CreatedAt,
	}
	if m.DeliveredDate != nil {
		p.DeliveredDate = *m.DeliveredDate
	}
	return p
}

func fromDependencyModel(m *DependencyModel) *model.Dependency {
	return &model.Dependency{
		ID:                    m.ID,
		ProjectID:             m.ProjectID,
		LibraryID:             m.LibraryID,
		AddedManually:         m.AddedManually,
		EligibleForPublishing: m.EligibleForPublishing,
		AddedDate:             m.CreatedAt,
		Comment:               m.Comment,
	}
}

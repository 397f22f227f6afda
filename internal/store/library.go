package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kompline/kompline/internal/licenses"
	"github.com/kompline/kompline/internal/model"
)

// LibraryRepository is the single writer for library rows. Libraries are
// global: many projects reference the same row through dependencies, so
// identity uniqueness and the merge-on-collision rule live here and nowhere
// else.
type LibraryRepository struct {
	db  *gorm.DB
	reg *licenses.Registry
}

func NewLibraryRepository(db *gorm.DB, reg *licenses.Registry) *LibraryRepository {
	return &LibraryRepository{db: db, reg: reg}
}

// CreateOrMerge stores the library, enforcing (namespace, name, version,
// type) uniqueness. On an identity collision the incoming record is merged
// into the existing row: identity fields never change, every other field is
// taken from the incoming record where it is non-empty. The stored library is
// returned either way, with its database id set.
func (r *LibraryRepository) CreateOrMerge(ctx context.Context, lib *model.Library) (*model.Library, error) {
	var existing LibraryModel
	err := r.identityQuery(ctx, lib).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		m := toLibraryModel(lib)
		m.ID = 0
		if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
			return nil, fmt.Errorf("creating library %s: %w", lib.Label(), err)
		}
		return fromLibraryModel(&m, r.reg), nil
	case err != nil:
		return nil, fmt.Errorf("looking up library %s: %w", lib.Label(), err)
	}

	merged := fromLibraryModel(&existing, r.reg)
	mergeLibrary(merged, lib)

	m := toLibraryModel(merged)
	m.ID = existing.ID
	m.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return nil, fmt.Errorf("merging library %s: %w", lib.Label(), err)
	}
	return fromLibraryModel(&m, r.reg), nil
}

// Update persists a reviewed or re-resolved library. The identity fields of
// the stored row win unconditionally; an update can never move a library to a
// different identity.
func (r *LibraryRepository) Update(ctx context.Context, lib *model.Library) error {
	if lib.ID == 0 {
		return fmt.Errorf("%w: update requires a stored library", model.ErrValidation)
	}
	var existing LibraryModel
	if err := r.db.WithContext(ctx).First(&existing, lib.ID).Error; err != nil {
		return fmt.Errorf("loading library %d: %w", lib.ID, err)
	}

	m := toLibraryModel(lib)
	m.ID = existing.ID
	m.Namespace = existing.Namespace
	m.Name = existing.Name
	m.Version = existing.Version
	m.Type = existing.Type
	m.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return fmt.Errorf("updating library %d: %w", lib.ID, err)
	}
	return nil
}

func (r *LibraryRepository) Get(ctx context.Context, id uint) (*model.Library, error) {
	var m LibraryModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, fmt.Errorf("loading library %d: %w", id, err)
	}
	return fromLibraryModel(&m, r.reg), nil
}

// List returns all libraries ordered by namespace, name, version.
func (r *LibraryRepository) List(ctx context.Context) ([]*model.Library, error) {
	var rows []LibraryModel
	err := r.db.WithContext(ctx).
		Order("namespace, name, version").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing libraries: %w", err)
	}
	out := make([]*model.Library, 0, len(rows))
	for i := range rows {
		out = append(out, fromLibraryModel(&rows[i], r.reg))
	}
	return out, nil
}

// ForProject returns the libraries attached to a project via its dependency
// rows, in attach order.
func (r *LibraryRepository) ForProject(ctx context.Context, projectID uint) ([]*model.Library, error) {
	var rows []LibraryModel
	err := r.db.WithContext(ctx).
		Joins("JOIN dependencies ON dependencies.library_id = libraries.id").
		Where("dependencies.project_id = ?", projectID).
		Order("dependencies.id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing libraries of project %d: %w", projectID, err)
	}
	out := make([]*model.Library, 0, len(rows))
	for i := range rows {
		out = append(out, fromLibraryModel(&rows[i], r.reg))
	}
	return out, nil
}

// ReferencingLicense returns every library whose publish or file-license set
// contains the given short identifier. Drives conflict re-evaluation after a
// license edit. Sets are serialized as JSON id arrays; a LIKE over the quoted
// identifier is exact because short identifiers contain no quotes.
func (r *LibraryRepository) ReferencingLicense(ctx context.Context, shortID string) ([]*model.Library, error) {
	needle := `%"` + shortID + `"%`
	var rows []LibraryModel
	err := r.db.WithContext(ctx).
		Where("license_to_publish LIKE ? OR license_of_files LIKE ?", needle, needle).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing libraries referencing %s: %w", shortID, err)
	}
	out := make([]*model.Library, 0, len(rows))
	for i := range rows {
		out = append(out, fromLibraryModel(&rows[i], r.reg))
	}
	return out, nil
}

func (r *LibraryRepository) identityQuery(ctx context.Context, lib *model.Library) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("namespace = ? AND name = ? AND version = ? AND type = ?",
			lib.Namespace, lib.Name, lib.Version, lib.Type).
		Model(&LibraryModel{})
}

// mergeLibrary folds the incoming record into the stored one. Non-identity
// scalar fields win when non-empty; the error log is unioned through the
// dedup in LogProblem; review state is kept from the stored row.
func mergeLibrary(stored, incoming *model.Library) {
	if incoming.OriginalLicense != "" {
		stored.OriginalLicense = incoming.OriginalLicense
	}
	if len(incoming.Licenses) > 0 {
		stored.Licenses = incoming.Licenses
	}
	if len(incoming.LicenseToPublish) > 0 {
		stored.LicenseToPublish = incoming.LicenseToPublish
	}
	if len(incoming.LicenseOfFiles) > 0 {
		stored.LicenseOfFiles = incoming.LicenseOfFiles
	}
	if incoming.LicenseRisk != nil {
		stored.LicenseRisk = incoming.LicenseRisk
	}
	if incoming.Copyright != "" {
		stored.Copyright = incoming.Copyright
	}
	if incoming.SourceCodeURL != "" {
		stored.SourceCodeURL = incoming.SourceCodeURL
	}
	if incoming.LicenseURL != "" {
		stored.LicenseURL = incoming.LicenseURL
	}
	if incoming.LicenseText != "" {
		stored.LicenseText = incoming.LicenseText
	}
	for _, e := range incoming.ErrorLog {
		stored.LogProblem(e.Issue, e.Message, e.Severity)
	}
}

package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kompline/kompline/internal/model"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create stores a new project. (name, version) is unique.
func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) error {
	m := toProjectModel(p)
	m.ID = 0
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("creating project %s %s: %w", p.Name, p.Version, err)
	}
	p.ID = m.ID
	p.CreatedDate = m.CreatedAt
	if p.UploadState == "" {
		p.UploadState = model.UploadIdle
	}
	return nil
}

// Get loads a project and its dependency rows. The previous-project chain is
// loaded one link deep; walkers that need the full chain follow
// PreviousProjectID themselves.
func (r *ProjectRepository) Get(ctx context.Context, id uint) (*model.Project, error) {
	var m ProjectModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, fmt.Errorf("loading project %d: %w", id, err)
	}
	p := fromProjectModel(&m)

	var deps []DependencyModel
	if err := r.db.WithContext(ctx).Where("project_id = ?", id).Order("id").Find(&deps).Error; err != nil {
		return nil, fmt.Errorf("loading dependencies of project %d: %w", id, err)
	}
	for i := range deps {
		p.Dependencies = append(p.Dependencies, fromDependencyModel(&deps[i]))
	}

	if p.PreviousProjectID != nil {
		var prev ProjectModel
		err := r.db.WithContext(ctx).First(&prev, *p.PreviousProjectID).Error
		if err == nil {
			p.PreviousProject = fromProjectModel(&prev)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("loading previous project of %d: %w", id, err)
		}
	}
	return p, nil
}

// Find locates a project by name and version.
func (r *ProjectRepository) Find(ctx context.Context, name, version string) (*model.Project, error) {
	var m ProjectModel
	err := r.db.WithContext(ctx).Where("name = ? AND version = ?", name, version).First(&m).Error
	if err != nil {
		return nil, fmt.Errorf("loading project %s %s: %w", name, version, err)
	}
	return r.Get(ctx, m.ID)
}

func (r *ProjectRepository) List(ctx context.Context) ([]*model.Project, error) {
	var rows []ProjectModel
	if err := r.db.WithContext(ctx).Order("name, version").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	out := make([]*model.Project, 0, len(rows))
	for i := range rows {
		out = append(out, fromProjectModel(&rows[i]))
	}
	return out, nil
}

// Save persists mutable project fields (disclaimer, filter, previous link,
// delivery flags). Name and version stay as stored.
func (r *ProjectRepository) Save(ctx context.Context, p *model.Project) error {
	var existing ProjectModel
	if err := r.db.WithContext(ctx).First(&existing, p.ID).Error; err != nil {
		return fmt.Errorf("loading project %d: %w", p.ID, err)
	}
	m := toProjectModel(p)
	m.ID = existing.ID
	m.Name = existing.Name
	m.Version = existing.Version
	m.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return fmt.Errorf("saving project %d: %w", p.ID, err)
	}
	return nil
}

// SetUploadState flips only the upload state column.
func (r *ProjectRepository) SetUploadState(ctx context.Context, projectID uint, state model.UploadState) error {
	err := r.db.WithContext(ctx).
		Model(&ProjectModel{}).
		Where("id = ?", projectID).
		Update("upload_state", string(state)).Error
	if err != nil {
		return fmt.Errorf("setting upload state of project %d: %w", projectID, err)
	}
	return nil
}

// Delete removes a project and its dependency rows. Libraries are global and
// are never deleted here; an orphaned library stays available to the next
// project that uploads the same identity.
func (r *ProjectRepository) Delete(ctx context.Context, projectID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&DependencyModel{}).Error; err != nil {
			return fmt.Errorf("deleting dependencies of project %d: %w", projectID, err)
		}
		// Successor projects keep working when their predecessor goes away.
		if err := tx.Model(&ProjectModel{}).
			Where("previous_project_id = ?", projectID).
			Update("previous_project_id", nil).Error; err != nil {
			return fmt.Errorf("unlinking successors of project %d: %w", projectID, err)
		}
		if err := tx.Delete(&ProjectModel{}, projectID).Error; err != nil {
			return fmt.Errorf("deleting project %d: %w", projectID, err)
		}
		return nil
	})
}

// DependencyRepository manages the project-library join rows.
type DependencyRepository struct {
	db *gorm.DB
}

func NewDependencyRepository(db *gorm.DB) *DependencyRepository {
	return &DependencyRepository{db: db}
}

// Attach links a library to a project. Idempotent: attaching an already
// linked pair is a no-op and reports created=false.
func (r *DependencyRepository) Attach(ctx context.Context, projectID, libraryID uint, addedManually bool) (bool, error) {
	var existing DependencyModel
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND library_id = ?", projectID, libraryID).
		First(&existing).Error
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, fmt.Errorf("looking up dependency %d/%d: %w", projectID, libraryID, err)
	}

	m := DependencyModel{
		ProjectID:             projectID,
		LibraryID:             libraryID,
		AddedManually:         addedManually,
		EligibleForPublishing: true,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return false, fmt.Errorf("attaching library %d to project %d: %w", libraryID, projectID, err)
	}
	return true, nil
}

// Detach removes the join row. The library itself stays.
func (r *DependencyRepository) Detach(ctx context.Context, projectID, libraryID uint) error {
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND library_id = ?", projectID, libraryID).
		Delete(&DependencyModel{}).Error
	if err != nil {
		return fmt.Errorf("detaching library %d from project %d: %w", libraryID, projectID, err)
	}
	return nil
}

// SetEligibility flips the publishing eligibility of one dependency and
// records the reviewer comment.
func (r *DependencyRepository) SetEligibility(ctx context.Context, projectID, libraryID uint, eligible bool, comment string) error {
	err := r.db.WithContext(ctx).
		Model(&DependencyModel{}).
		Where("project_id = ? AND library_id = ?", projectID, libraryID).
		Updates(map[string]any{
			"eligible_for_publishing": eligible,
			"comment":                 comment,
		}).Error
	if err != nil {
		return fmt.Errorf("updating dependency %d/%d: %w", projectID, libraryID, err)
	}
	return nil
}

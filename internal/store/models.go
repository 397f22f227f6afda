package store

import "time"

// Row models. Domain structs in internal/model stay free of persistence tags;
// mapping between the two is done by hand in convert.go.

type LibraryModel struct {
	ID        uint   `gorm:"primaryKey"`
	Namespace string `gorm:"index:idx_library_identity,unique"`
	Name      string `gorm:"not null;index:idx_library_identity,unique"`
	Version   string `gorm:"not null;index:idx_library_identity,unique"`
	Type      string `gorm:"index:idx_library_identity,unique"`

	OriginalLicense  string
	LicenseChain     string // JSON, ordered links of short identifiers
	LicenseToPublish string // JSON, short identifiers
	LicenseOfFiles   string // JSON, short identifiers
	RiskName         string

	Copyright     string
	SourceCodeURL string
	LicenseURL    string
	LicenseText   string
	ErrorLog      string // JSON

	Reviewed         bool
	LastReviewedDate *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (LibraryModel) TableName() string { return "libraries" }

type ProjectModel struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"not null;index:idx_project_identity,unique"`
	Version string `gorm:"not null;index:idx_project_identity,unique"`

	PreviousProjectID *uint `gorm:"index"`

	Disclaimer   string
	UploadFilter string
	UploadState  string `gorm:"not null;default:'IDLE'"`

	Delivered     bool
	DeliveredDate *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ProjectModel) TableName() string { return "projects" }

type DependencyModel struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"not null;index:idx_dependency,unique"`
	LibraryID uint `gorm:"not null;index:idx_dependency,unique"`

	AddedManually         bool
	EligibleForPublishing bool `gorm:"not null;default:true"`
	Comment               string
	CreatedAt             time.Time
}

func (DependencyModel) TableName() string { return "dependencies" }

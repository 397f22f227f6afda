// Package store persists projects, libraries and their join rows in an
// embedded sqlite database. Repositories are narrow: each exposes only the
// operations its callers need, mapped by hand to and from the domain structs.
package store

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Open opens (creating if needed) the sqlite database at path using the pure
// Go driver.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	return db, nil
}

// Migrate brings the schema up to date. The schema is small and owned by this
// package alone, so gorm's auto migration is sufficient.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(
		&LibraryModel{},
		&ProjectModel{},
		&DependencyModel{},
	)
}

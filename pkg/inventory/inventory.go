// Package inventory keeps a local catalogue of diffraction images in a
// sqlite database: one row per image file, found by scanning directories.
// Re-scanning updates rows in place, so the path is the natural key.
package inventory

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/logging"
)

func logger() zerolog.Logger {
	return logging.GetLogger("inventory")
}

// ImageFile is one catalogued diffraction image
type ImageFile struct {
	ID            uint   `gorm:"primaryKey"`
	Path          string `gorm:"uniqueIndex"`
	Format        string
	Frames        int
	WavelengthAng float64
	DetectorName  string
	SizeBytes     int64
	ModTime       time.Time
	RunID         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DB is an open inventory database
type DB struct {
	db *gorm.DB
}

// Open opens or creates the inventory database at the given path,
// creating parent directories and migrating the schema as needed.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot create inventory directory %s", dir)
		}
	}

	// gorm's own logger prints to stdout, which would interleave with
	// command output; difftbx logging covers the interesting events
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInventory, "cannot open inventory database %s", path)
	}
	if err := db.AutoMigrate(&ImageFile{}); err != nil {
		return nil, errors.Wrapf(err, errors.ErrInventory, "cannot migrate inventory schema in %s", path)
	}

	log := logger()
	log.Debug().Str("path", path).Msg("Inventory database open")
	return &DB{db: db}, nil
}

// NewRunID returns a fresh identifier stamped onto every row a single
// scan touches
func NewRunID() string {
	return uuid.NewString()
}

// Record inserts the image or, when the path is already catalogued,
// replaces the stored row while keeping its identity.
func (d *DB) Record(file ImageFile) error {
	log := logger()
	var existing []ImageFile
	if err := d.db.Where("path = ?", file.Path).Find(&existing).Error; err != nil {
		return errors.Wrapf(err, errors.ErrInventory, "cannot look up %s", file.Path)
	}

	if len(existing) == 0 {
		if err := d.db.Create(&file).Error; err != nil {
			return errors.Wrapf(err, errors.ErrInventory, "cannot record %s", file.Path)
		}
		log.Debug().Str("path", file.Path).Str("format", file.Format).Msg("Image recorded")
		return nil
	}

	file.ID = existing[0].ID
	file.CreatedAt = existing[0].CreatedAt
	if err := d.db.Save(&file).Error; err != nil {
		return errors.Wrapf(err, errors.ErrInventory, "cannot update %s", file.Path)
	}
	log.Debug().Str("path", file.Path).Str("format", file.Format).Msg("Image updated")
	return nil
}

// Get returns the catalogued image at the given path
func (d *DB) Get(path string) (*ImageFile, error) {
	var found []ImageFile
	if err := d.db.Where("path = ?", path).Find(&found).Error; err != nil {
		return nil, errors.Wrapf(err, errors.ErrInventory, "cannot look up %s", path)
	}
	if len(found) == 0 {
		return nil, errors.Newf(errors.ErrInventory, "no inventory entry for %s", path)
	}
	return &found[0], nil
}

// All returns every catalogued image ordered by path
func (d *DB) All() ([]ImageFile, error) {
	var files []ImageFile
	if err := d.db.Order("path").Find(&files).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrInventory, "cannot list inventory")
	}
	return files, nil
}

// ByFormat returns the catalogued images of one format ordered by path
func (d *DB) ByFormat(format string) ([]ImageFile, error) {
	var files []ImageFile
	if err := d.db.Where("format = ?", format).Order("path").Find(&files).Error; err != nil {
		return nil, errors.Wrapf(err, errors.ErrInventory, "cannot list %s images", format)
	}
	return files, nil
}

// Count returns the number of catalogued images
func (d *DB) Count() (int64, error) {
	var n int64
	if err := d.db.Model(&ImageFile{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrInventory, "cannot count inventory")
	}
	return n, nil
}

// Forget removes the image at the given path and reports whether a row
// was actually removed
func (d *DB) Forget(path string) (bool, error) {
	res := d.db.Where("path = ?", path).Delete(&ImageFile{})
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, errors.ErrInventory, "cannot forget %s", path)
	}
	return res.RowsAffected > 0, nil
}

// Close releases the underlying database handle
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return errors.Wrap(err, errors.ErrInventory, "cannot access database handle")
	}
	return sqlDB.Close()
}

// Package store persists hidden-window bookkeeping, applied exclusions
// and preferences in a local SQLite database.
package store

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the database handle.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at dbPath and migrates the schema.
func Open(dbPath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Reduce log noise
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&HiddenWindow{},
		&Exclusion{},
		&Setting{},
	)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Hidden window operations

func (s *Store) SaveHidden(w *HiddenWindow) error {
	return s.db.Where("handle = ?", w.Handle).
		Assign(HiddenWindow{Title: w.Title, Process: w.Process, PID: w.PID}).
		FirstOrCreate(&HiddenWindow{Handle: w.Handle}).Error
}

func (s *Store) ListHidden() ([]HiddenWindow, error) {
	var rows []HiddenWindow
	err := s.db.Order("created_at").Find(&rows).Error
	return rows, err
}

// DeleteHidden removes a record for good. The delete must be unscoped:
// a soft-deleted row would still occupy the unique handle index and
// block re-hiding the same window later.
func (s *Store) DeleteHidden(handle uint64) error {
	return s.db.Unscoped().Where("handle = ?", handle).Delete(&HiddenWindow{}).Error
}

func (s *Store) ClearHidden() error {
	return s.db.Unscoped().Where("1 = 1").Delete(&HiddenWindow{}).Error
}

// Exclusion operations

func (s *Store) RecordExclusion(e *Exclusion) error {
	if e.AppliedAt.IsZero() {
		e.AppliedAt = time.Now()
	}
	return s.db.Where("handle = ?", e.Handle).
		Assign(Exclusion{Title: e.Title, Process: e.Process, Mode: e.Mode, AppliedAt: e.AppliedAt}).
		FirstOrCreate(&Exclusion{Handle: e.Handle}).Error
}

// ClearExclusion hard-deletes so the handle can be excluded again, see
// DeleteHidden.
func (s *Store) ClearExclusion(handle uint64) error {
	return s.db.Unscoped().Where("handle = ?", handle).Delete(&Exclusion{}).Error
}

func (s *Store) ListExclusions() ([]Exclusion, error) {
	var rows []Exclusion
	err := s.db.Order("applied_at").Find(&rows).Error
	return rows, err
}

// Settings

func (s *Store) Setting(name, fallback string) string {
	var row Setting
	err := s.db.Where("name = ?", name).First(&row).Error
	if err != nil {
		return fallback
	}
	return row.Value
}

func (s *Store) SetSetting(name, value string) error {
	return s.db.Where("name = ?", name).
		Assign(Setting{Value: value}).
		FirstOrCreate(&Setting{Name: name}).Error
}

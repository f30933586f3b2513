package store

import (
	"time"

	"gorm.io/gorm"
)

// HiddenWindow records a window the user hid so it can be restored
// after a restart, matched back by title and process when the handle
// has gone stale.
type HiddenWindow struct {
	gorm.Model
	Handle  uint64 `gorm:"uniqueIndex"`
	Title   string
	Process string
	PID     uint32
}

// Exclusion records a window whose capture affinity was changed, with
// the mode that was applied.
type Exclusion struct {
	gorm.Model
	Handle    uint64 `gorm:"uniqueIndex"`
	Title     string
	Process   string
	Mode      uint32
	AppliedAt time.Time
}

// Setting is a persisted key/value preference.
type Setting struct {
	gorm.Model
	Name  string `gorm:"uniqueIndex"`
	Value string
}

package dinner

import (
	"context"
	"time"

	"github.com/trezcool/potluck/core/settings"
)

type (
	// Repository persists the editable dinner records and the archive.
	Repository interface {
		// Get returns the record and its last modification time.
		// A missing or unreadable record is replaced by seed() and persisted.
		Get(ctx context.Context, which Which, seed func() Dinner) (Dinner, time.Time, error)
		// Save overwrites the record in a single write.
		Save(ctx context.Context, which Which, d Dinner) (time.Time, error)
		// Archived returns the archive, newest first.
		Archived(ctx context.Context) ([]ArchivedDinner, error)
		// Commit persists a lifecycle transition: all of it or none of it.
		Commit(ctx context.Context, t Transition) error
	}

	// Transition is the new state written by an archive.
	Transition struct {
		Archive []ArchivedDinner
		Current Dinner
		Next    Dinner
	}

	// SettingsSource provides the dinner day and donation rates.
	SettingsSource interface {
		Get(ctx context.Context) (settings.Settings, error)
	}
)

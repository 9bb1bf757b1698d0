package dinner

import (
	"context"

	"github.com/trezcool/potluck/core/settings"
)

// Operation names reported to listeners.
const (
	OpUpdateDetail    = "update_detail"
	OpAddMenuItem     = "add_menu_item"
	OpRemoveMenuItem  = "remove_menu_item"
	OpSignupVolunteer = "signup_volunteer"
	OpRemoveVolunteer = "remove_volunteer"
	OpSubmitRSVP      = "submit_rsvp"
	OpRemoveRSVP      = "remove_rsvp"
	OpAddNote         = "add_note"
	OpRemoveNote      = "remove_note"
)

// Archive triggers.
const (
	TriggerAdmin     = "admin"
	TriggerScheduler = "scheduler"
)

type (
	ArchiveEvent struct {
		Archived ArchivedDinner
		Current  Dinner
		Rates    settings.Rates
		Trigger  string
	}

	// Listener is notified after a change has been persisted.
	// Implementations must not block; slow work belongs in a goroutine.
	Listener interface {
		DinnerChanged(ctx context.Context, which Which, op string)
		DinnerArchived(ctx context.Context, e ArchiveEvent)
	}

	// NopListener can be embedded by listeners interested in a single event.
	NopListener struct{}
)

func (NopListener) DinnerChanged(context.Context, Which, string) {}
func (NopListener) DinnerArchived(context.Context, ArchiveEvent) {}

// Summary returns the RSVP summary of the archived dinner.
func (e ArchiveEvent) Summary() RSVPSummary {
	return Summarize(e.Archived.RSVPs, e.Rates)
}

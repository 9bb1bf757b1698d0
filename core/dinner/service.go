package dinner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/settings"
)

var (
	errDinnerNotFound   = core.NewNotFoundError("Dinner not found")
	errArchivedNotFound = core.NewNotFoundError("Archived dinner not found")
	errItemNotFound     = core.NewNotFoundError("Item not found")
	errNotVolunteering  = core.NewNotFoundError("You are not volunteering for this role")
	errRSVPNotFound     = core.NewNotFoundError("RSVP not found")
	errNoteNotFound     = core.NewNotFoundError("Note not found")

	errNotItemContributor = core.NewAuthorizationError("You can only remove your own menu items")
	errNotNoteAuthor      = core.NewAuthorizationError("You can only remove your own notes")

	errAlreadyVolunteering = core.NewValidationError(errors.New("You are already volunteering for this role"))
	errInvalidCategory     = core.NewValidationError(errors.New(categoryText))
	errInvalidRole         = core.NewValidationError(errors.New(roleText))
)

type (
	Service struct {
		mu          sync.Mutex
		repo        Repository
		settings    SettingsSource
		loc         *time.Location
		defaultTime string
		cutoffHour  int
		listeners   []Listener
		now         func() time.Time
	}

	// Overview is a dinner with its RSVP summary.
	Overview struct {
		Dinner  Dinner         `json:"dinner"`
		Summary RSVPSummary    `json:"summary"`
		Rates   settings.Rates `json:"donation_amounts"`
	}

	// Updates is the answer to a poll for changes.
	Updates struct {
		HasUpdates bool         `json:"hasUpdates"`
		Timestamp  int64        `json:"timestamp"`
		Sections   []string     `json:"sections,omitempty"`
		Dinner     *Dinner      `json:"dinner,omitempty"`
		Summary    *RSVPSummary `json:"summary,omitempty"`
	}
)

func NewService(repo Repository, settingsSrc SettingsSource, conf *core.Config) *Service {
	return &Service{
		repo:        repo,
		settings:    settingsSrc,
		loc:         conf.Location(),
		defaultTime: conf.Dinner.DefaultTime,
		cutoffHour:  conf.Dinner.CutoffHour,
		now:         time.Now,
	}
}

// AddListener registers l. It is not safe to call once the service is in use.
func (svc *Service) AddListener(l Listener) {
	svc.listeners = append(svc.listeners, l)
}

// SetClock replaces the service clock (tests, CLI dry runs).
func (svc *Service) SetClock(now func() time.Time) {
	svc.now = now
}

func (svc *Service) clock() time.Time {
	return svc.now().In(svc.loc)
}

// seed returns the record used when which is missing from storage.
func (svc *Service) seed(set settings.Settings, which Which) func() Dinner {
	return func() Dinner {
		date := NextDate(svc.clock(), time.Weekday(set.DinnerDay), svc.cutoffHour)
		if which == Next {
			date = date.AddDate(0, 0, 7)
		}
		return New(date, svc.defaultTime)
	}
}

func (svc *Service) load(ctx context.Context, which Which) (Dinner, time.Time, settings.Settings, error) {
	if !which.Valid() {
		return Dinner{}, time.Time{}, settings.Settings{}, errDinnerNotFound
	}
	set, err := svc.settings.Get(ctx)
	if err != nil {
		return Dinner{}, time.Time{}, settings.Settings{}, errors.Wrap(err, "loading settings")
	}
	d, modTime, err := svc.repo.Get(ctx, which, svc.seed(set, which))
	if err != nil {
		return Dinner{}, time.Time{}, settings.Settings{}, errors.Wrap(err, "loading dinner")
	}
	d.normalize()
	return d, modTime, set, nil
}

// mutate runs the read-modify-write cycle of every mutator under the service lock.
// fn works on a copy; nothing is written when it fails.
func (svc *Service) mutate(ctx context.Context, which Which, op string, fn func(d *Dinner) error) (Dinner, error) {
	svc.mu.Lock()
	d, _, _, err := svc.load(ctx, which)
	if err != nil {
		svc.mu.Unlock()
		return Dinner{}, err
	}
	d = d.clone()
	if err = fn(&d); err != nil {
		svc.mu.Unlock()
		return Dinner{}, err
	}
	if _, err = svc.repo.Save(ctx, which, d); err != nil {
		svc.mu.Unlock()
		return Dinner{}, errors.Wrap(err, "saving dinner")
	}
	svc.mu.Unlock()

	for _, l := range svc.listeners {
		l.DinnerChanged(ctx, which, op)
	}
	return d, nil
}

func (svc *Service) Get(ctx context.Context, which Which) (Dinner, error) {
	d, _, _, err := svc.load(ctx, which)
	return d, err
}

func (svc *Service) Overview(ctx context.Context, which Which) (Overview, error) {
	d, _, set, err := svc.load(ctx, which)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		Dinner:  d,
		Summary: Summarize(d.RSVPs, set.DonationAmounts),
		Rates:   set.DonationAmounts,
	}, nil
}

// UpdateDetail sets the theme, location or time. ud must have been validated.
func (svc *Service) UpdateDetail(ctx context.Context, which Which, ud UpdateDetail) (Dinner, error) {
	return svc.mutate(ctx, which, OpUpdateDetail, func(d *Dinner) error {
		switch ud.Field {
		case Theme:
			d.Theme = ud.Value
		case Location:
			d.Location = ud.Value
		case Time:
			d.Time = ud.Value
		}
		return nil
	})
}

// AddMenuItem appends an item contributed by `by`. nm must have been validated.
func (svc *Service) AddMenuItem(ctx context.Context, which Which, by string, nm NewMenuItem) (MenuItem, error) {
	item := MenuItem{
		ID:   uuid.NewString(),
		Item: nm.Item,
		Name: by,
	}
	_, err := svc.mutate(ctx, which, OpAddMenuItem, func(d *Dinner) error {
		d.Menu[nm.Category] = append(d.Menu[nm.Category], item)
		return nil
	})
	if err != nil {
		return MenuItem{}, err
	}
	return item, nil
}

func (svc *Service) RemoveMenuItem(ctx context.Context, which Which, by string, cat Category, id string) error {
	if !cat.Valid() {
		return errInvalidCategory
	}
	_, err := svc.mutate(ctx, which, OpRemoveMenuItem, func(d *Dinner) error {
		items := d.Menu[cat]
		for i, item := range items {
			if item.ID != id {
				continue
			}
			if item.Name != by {
				return errNotItemContributor
			}
			d.Menu[cat] = append(items[:i], items[i+1:]...)
			return nil
		}
		return errItemNotFound
	})
	return err
}

func (svc *Service) SignupVolunteer(ctx context.Context, which Which, by string, nv NewVolunteer) error {
	_, err := svc.mutate(ctx, which, OpSignupVolunteer, func(d *Dinner) error {
		for _, v := range d.Volunteers[nv.Role] {
			if v.Name == by {
				return errAlreadyVolunteering
			}
		}
		d.Volunteers[nv.Role] = append(d.Volunteers[nv.Role], Volunteer{Name: by})
		return nil
	})
	return err
}

func (svc *Service) RemoveVolunteer(ctx context.Context, which Which, by string, role Role) error {
	if !role.Valid() {
		return errInvalidRole
	}
	_, err := svc.mutate(ctx, which, OpRemoveVolunteer, func(d *Dinner) error {
		vols := d.Volunteers[role]
		for i, v := range vols {
			if v.Name == by {
				d.Volunteers[role] = append(vols[:i], vols[i+1:]...)
				return nil
			}
		}
		return errNotVolunteering
	})
	return err
}

// SubmitRSVP replaces the RSVP of `by` in place, or appends one. created reports which happened.
func (svc *Service) SubmitRSVP(ctx context.Context, which Which, by string, nr NewRSVP) (rsvp RSVP, created bool, err error) {
	rsvp = RSVP{
		Name:      by,
		Party:     nr.Party,
		Timestamp: svc.now().UTC(),
	}
	_, err = svc.mutate(ctx, which, OpSubmitRSVP, func(d *Dinner) error {
		for i, r := range d.RSVPs {
			if r.Name == by {
				d.RSVPs[i] = rsvp
				created = false
				return nil
			}
		}
		d.RSVPs = append(d.RSVPs, rsvp)
		created = true
		return nil
	})
	if err != nil {
		return RSVP{}, false, err
	}
	return rsvp, created, nil
}

func (svc *Service) RemoveRSVP(ctx context.Context, which Which, by string) error {
	_, err := svc.mutate(ctx, which, OpRemoveRSVP, func(d *Dinner) error {
		for i, r := range d.RSVPs {
			if r.Name == by {
				d.RSVPs = append(d.RSVPs[:i], d.RSVPs[i+1:]...)
				return nil
			}
		}
		return errRSVPNotFound
	})
	return err
}

// AddNote appends a note written by `by`. nn must have been validated.
func (svc *Service) AddNote(ctx context.Context, which Which, by string, nn NewNote) (Note, error) {
	note := Note{
		ID:        uuid.NewString(),
		Text:      nn.Text,
		Name:      by,
		Timestamp: svc.now().UTC(),
	}
	_, err := svc.mutate(ctx, which, OpAddNote, func(d *Dinner) error {
		d.Notes = append(d.Notes, note)
		return nil
	})
	if err != nil {
		return Note{}, err
	}
	return note, nil
}

func (svc *Service) RemoveNote(ctx context.Context, which Which, by, id string) error {
	_, err := svc.mutate(ctx, which, OpRemoveNote, func(d *Dinner) error {
		for i, n := range d.Notes {
			if n.ID != id {
				continue
			}
			if n.Name != by {
				return errNotNoteAuthor
			}
			d.Notes = append(d.Notes[:i], d.Notes[i+1:]...)
			return nil
		}
		return errNoteNotFound
	})
	return err
}

// Archive moves the current dinner to the head of the archive, promotes the next dinner
// to current and seeds a new next dinner one week later. It always archives.
func (svc *Service) Archive(ctx context.Context, by string) (ArchiveEvent, error) {
	svc.mu.Lock()
	e, err := svc.archive(ctx, by, TriggerAdmin)
	svc.mu.Unlock()
	if err != nil {
		return ArchiveEvent{}, err
	}
	svc.notifyArchived(ctx, e)
	return e, nil
}

// ArchiveIfDue archives only when the current dinner's date is today or earlier.
// Once archived the current dinner lies in the future, so repeated calls are no-ops.
func (svc *Service) ArchiveIfDue(ctx context.Context) (ArchiveEvent, bool, error) {
	svc.mu.Lock()
	cur, _, _, err := svc.load(ctx, Current)
	if err != nil {
		svc.mu.Unlock()
		return ArchiveEvent{}, false, err
	}
	if day, err := cur.Day(svc.loc); err == nil && day.After(today(svc.clock())) {
		svc.mu.Unlock()
		return ArchiveEvent{}, false, nil
	}
	e, err := svc.archive(ctx, TriggerScheduler, TriggerScheduler)
	svc.mu.Unlock()
	if err != nil {
		return ArchiveEvent{}, false, err
	}
	svc.notifyArchived(ctx, e)
	return e, true, nil
}

// archive must be called with svc.mu held.
func (svc *Service) archive(ctx context.Context, by, trigger string) (ArchiveEvent, error) {
	cur, _, set, err := svc.load(ctx, Current)
	if err != nil {
		return ArchiveEvent{}, err
	}
	next, _, _, err := svc.load(ctx, Next)
	if err != nil {
		return ArchiveEvent{}, err
	}
	archive, err := svc.repo.Archived(ctx)
	if err != nil {
		return ArchiveEvent{}, errors.Wrap(err, "loading archive")
	}

	now := svc.clock()
	prev, err := cur.Day(svc.loc)
	if err != nil {
		prev = today(now).AddDate(0, 0, -1)
	}
	date := nextAfter(now, time.Weekday(set.DinnerDay), svc.cutoffHour, prev)

	promoted := next.clone()
	promoted.reschedule(date)
	if promoted.Time == "" {
		promoted.Time = svc.defaultTime
	}

	entry := ArchivedDinner{
		Dinner:     cur,
		ArchivedAt: now.UTC(),
		ArchivedBy: by,
	}
	t := Transition{
		Archive: append([]ArchivedDinner{entry}, archive...),
		Current: promoted,
		Next:    New(date.AddDate(0, 0, 7), svc.defaultTime),
	}
	if err := svc.repo.Commit(ctx, t); err != nil {
		return ArchiveEvent{}, errors.Wrap(err, "committing archive")
	}
	return ArchiveEvent{
		Archived: entry,
		Current:  promoted,
		Rates:    set.DonationAmounts,
		Trigger:  trigger,
	}, nil
}

func (svc *Service) notifyArchived(ctx context.Context, e ArchiveEvent) {
	for _, l := range svc.listeners {
		l.DinnerArchived(ctx, e)
	}
}

// Archived lists the archived dinners, most recent date first.
func (svc *Service) Archived(ctx context.Context) ([]ArchiveSummary, error) {
	archive, err := svc.repo.Archived(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading archive")
	}
	summaries := make([]ArchiveSummary, 0, len(archive))
	for _, a := range archive {
		summaries = append(summaries, a.Summary())
	}
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].Date > summaries[j].Date })
	return summaries, nil
}

func (svc *Service) GetArchived(ctx context.Context, id string) (ArchivedDinner, error) {
	archive, err := svc.repo.Archived(ctx)
	if err != nil {
		return ArchivedDinner{}, errors.Wrap(err, "loading archive")
	}
	for _, a := range archive {
		if a.ID == id {
			a.normalize()
			return a, nil
		}
	}
	return ArchivedDinner{}, errArchivedNotFound
}

// Sections are the parts of a dinner a client displays.
var Sections = []string{"details", "menu", "volunteers", "rsvps", "notes"}

// CheckUpdates reports whether the current dinner changed after sinceMillis (unix ms).
// The returned timestamp is the dinner's modification time, or sinceMillis when that is later;
// passing it back on the next poll reports exactly the writes made in between.
func (svc *Service) CheckUpdates(ctx context.Context, sinceMillis int64) (Updates, error) {
	d, modTime, set, err := svc.load(ctx, Current)
	if err != nil {
		return Updates{}, err
	}
	modMillis := modTime.UnixMilli()
	if modMillis <= sinceMillis {
		return Updates{HasUpdates: false, Timestamp: sinceMillis}, nil
	}
	summary := Summarize(d.RSVPs, set.DonationAmounts)
	return Updates{
		HasUpdates: true,
		Timestamp:  modMillis,
		Sections:   Sections,
		Dinner:     &d,
		Summary:    &summary,
	}, nil
}

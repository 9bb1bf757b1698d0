package dinner_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/dinner"
	"github.com/trezcool/potluck/storage/docrepos"
	"github.com/trezcool/potluck/testutil"
)

var ctx = context.Background()

type recordingListener struct {
	mu       sync.Mutex
	changes  []string
	archives []dinner.ArchiveEvent
}

func (l *recordingListener) DinnerChanged(_ context.Context, which dinner.Which, op string) {
	l.mu.Lock()
	l.changes = append(l.changes, string(which)+":"+op)
	l.mu.Unlock()
}

func (l *recordingListener) DinnerArchived(_ context.Context, e dinner.ArchiveEvent) {
	l.mu.Lock()
	l.archives = append(l.archives, e)
	l.mu.Unlock()
}

// wednesday 2024-06-05: current dinner is saturday 2024-06-08, next is 2024-06-15
func newService(t *testing.T) (*dinner.Service, *testutil.Env) {
	env := testutil.NewEnv(t, testutil.FixedClock(2024, time.June, 5, 12))
	return env.DinnerSvc, env
}

func errType(err error) interface{} {
	return errors.Cause(err)
}

func TestService_Get(t *testing.T) {
	svc, _ := newService(t)

	cur, err := svc.Get(ctx, dinner.Current)
	require.NoError(t, err)
	assert.Equal(t, "dinner_20240608", cur.ID)
	assert.Equal(t, "2024-06-08", cur.Date)
	assert.Equal(t, "18:00", cur.Time)
	for _, c := range dinner.Categories {
		assert.NotNil(t, cur.Menu[c], c)
	}
	for _, r := range dinner.Roles {
		assert.NotNil(t, cur.Volunteers[r], r)
	}
	assert.NotNil(t, cur.RSVPs)
	assert.NotNil(t, cur.Notes)

	next, err := svc.Get(ctx, dinner.Next)
	require.NoError(t, err)
	assert.Equal(t, "dinner_20240615", next.ID)

	_, err = svc.Get(ctx, dinner.Which("later"))
	assert.True(t, core.IsNotFound(err))
}

func TestService_Get_corruptDocument(t *testing.T) {
	svc, env := newService(t)
	env.Backend.Put(docrepos.KeyCurrentDinner, []byte("{not json"))

	cur, err := svc.Get(ctx, dinner.Current)
	require.NoError(t, err)
	assert.Equal(t, "dinner_20240608", cur.ID)

	doc, err := env.Backend.Read(ctx, docrepos.KeyCurrentDinner)
	require.NoError(t, err)
	assert.Contains(t, string(doc.Data), "dinner_20240608")
}

func TestService_UpdateDetail(t *testing.T) {
	svc, _ := newService(t)

	d, err := svc.UpdateDetail(ctx, dinner.Next, dinner.UpdateDetail{Field: dinner.Theme, Value: "Tacos"})
	require.NoError(t, err)
	assert.Equal(t, "Tacos", d.Theme)

	_, err = svc.UpdateDetail(ctx, dinner.Next, dinner.UpdateDetail{Field: dinner.Time, Value: "19:30"})
	require.NoError(t, err)

	next, err := svc.Get(ctx, dinner.Next)
	require.NoError(t, err)
	assert.Equal(t, "Tacos", next.Theme)
	assert.Equal(t, "19:30", next.Time)

	cur, err := svc.Get(ctx, dinner.Current)
	require.NoError(t, err)
	assert.Empty(t, cur.Theme)
}

func TestService_menu(t *testing.T) {
	svc, _ := newService(t)

	item, err := svc.AddMenuItem(ctx, dinner.Current, "Alice", dinner.NewMenuItem{Category: dinner.Sides, Item: "Salad"})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Alice", item.Name)

	tests := []struct {
		name    string
		by      string
		cat     dinner.Category
		id      string
		wantErr interface{}
	}{
		{name: "invalid category", by: "Alice", cat: "desserts", id: item.ID, wantErr: &core.ValidationError{}},
		{name: "unknown item", by: "Alice", cat: dinner.Sides, id: "nope", wantErr: &core.NotFoundError{}},
		{name: "wrong category", by: "Alice", cat: dinner.Drinks, id: item.ID, wantErr: &core.NotFoundError{}},
		{name: "someone else's item", by: "Bob", cat: dinner.Sides, id: item.ID, wantErr: &core.AuthorizationError{}},
		{name: "own item", by: "Alice", cat: dinner.Sides, id: item.ID},
		{name: "already removed", by: "Alice", cat: dinner.Sides, id: item.ID, wantErr: &core.NotFoundError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.RemoveMenuItem(ctx, dinner.Current, tt.by, tt.cat, tt.id)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.IsType(t, tt.wantErr, errType(err))
		})
	}

	cur, err := svc.Get(ctx, dinner.Current)
	require.NoError(t, err)
	assert.Empty(t, cur.Menu[dinner.Sides])
}

func TestService_volunteers(t *testing.T) {
	svc, _ := newService(t)

	require.NoError(t, svc.SignupVolunteer(ctx, dinner.Current, "Alice", dinner.NewVolunteer{Role: dinner.Setup}))
	require.NoError(t, svc.SignupVolunteer(ctx, dinner.Current, "Bob", dinner.NewVolunteer{Role: dinner.Setup}))
	require.NoError(t, svc.SignupVolunteer(ctx, dinner.Current, "Alice", dinner.NewVolunteer{Role: dinner.Cleanup}))

	err := svc.SignupVolunteer(ctx, dinner.Current, "Alice", dinner.NewVolunteer{Role: dinner.Setup})
	assert.IsType(t, &core.ValidationError{}, errType(err))

	assert.IsType(t, &core.ValidationError{}, errType(svc.RemoveVolunteer(ctx, dinner.Current, "Alice", "cooking")))
	assert.IsType(t, &core.NotFoundError{}, errType(svc.RemoveVolunteer(ctx, dinner.Current, "Carol", dinner.Setup)))
	require.NoError(t, svc.RemoveVolunteer(ctx, dinner.Current, "Alice", dinner.Setup))

	cur, err := svc.Get(ctx, dinner.Current)
	require.NoError(t, err)
	assert.Equal(t, []dinner.Volunteer{{Name: "Bob"}}, cur.Volunteers[dinner.Setup])
	assert.Equal(t, []dinner.Volunteer{{Name: "Alice"}}, cur.Volunteers[dinner.Cleanup])
}

func TestService_rsvp(t *testing.T) {
	svc, _ := newService(t)

	_, created, err := svc.SubmitRSVP(ctx, dinner.Current, "Alice", dinner.NewRSVP{Party: dinner.Party{Adults: 1}})
	require.NoError(t, err)
	assert.True(t, created)

	_, _, err = svc.SubmitRSVP(ctx, dinner.Current, "Bob", dinner.NewRSVP{Party: dinner.Party{Children: 2}})
	require.NoError(t, err)

	rsvp, created, err := svc.SubmitRSVP(ctx, dinner.Current, "Alice", dinner.NewRSVP{Party: dinner.Party{Adults: 2, Teens: 1}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 2, rsvp.Adults)

	ov, err := svc.Overview(ctx, dinner.Current)
	require.NoError(t, err)
	require.Len(t, ov.Dinner.RSVPs, 2)
	assert.Equal(t, "Alice", ov.Dinner.RSVPs[0].Name, "replaced in place")
	assert.Equal(t, dinner.RSVPSummary{Count: 2, Adults: 2, Teens: 1, Children: 2, People: 5, Donation: 32}, ov.Summary)

	require.NoError(t, svc.RemoveRSVP(ctx, dinner.Current, "Alice"))
	assert.True(t, core.IsNotFound(svc.RemoveRSVP(ctx, dinner.Current, "Alice")))
}

func TestService_notes(t *testing.T) {
	svc, _ := newService(t)

	note, err := svc.AddNote(ctx, dinner.Current, "Alice", dinner.NewNote{Text: "Bring chairs"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", note.Name)

	assert.IsType(t, &core.AuthorizationError{}, errType(svc.RemoveNote(ctx, dinner.Current, "Bob", note.ID)))
	assert.IsType(t, &core.NotFoundError{}, errType(svc.RemoveNote(ctx, dinner.Current, "Alice", "nope")))
	require.NoError(t, svc.RemoveNote(ctx, dinner.Current, "Alice", note.ID))

	cur, err := svc.Get(ctx, dinner.Current)
	require.NoError(t, err)
	assert.Empty(t, cur.Notes)
}

func TestService_failedWrite(t *testing.T) {
	svc, env := newService(t)
	_, err := svc.AddNote(ctx, dinner.Current, "Alice", dinner.NewNote{Text: "first"})
	require.NoError(t, err)

	env.Backend.FailWrites(docrepos.KeyCurrentDinner, errors.New("disk full"))
	_, err = svc.AddNote(ctx, dinner.Current, "Alice", dinner.NewNote{Text: "second"})
	require.Error(t, err)
	var storageErr *core.StorageError
	assert.True(t, errors.As(err, &storageErr))

	env.Backend.FailWrites(docrepos.KeyCurrentDinner, nil)
	cur, err := svc.Get(ctx, dinner.Current)
	require.NoError(t, err)
	require.Len(t, cur.Notes, 1)
	assert.Equal(t, "first", cur.Notes[0].Text)
}

func TestService_Get_unwritableStorage(t *testing.T) {
	svc, env := newService(t)
	env.Backend.FailWrites(docrepos.KeyCurrentDinner, errors.New("read-only file system"))

	cur, err := svc.Get(ctx, dinner.Current)
	require.NoError(t, err)
	assert.Equal(t, "dinner_20240608", cur.ID)
	assert.Equal(t, "18:00", cur.Time)

	_, err = env.Backend.Read(ctx, docrepos.KeyCurrentDinner)
	assert.Error(t, err, "default was not persisted")
}

func TestService_Archive(t *testing.T) {
	svc, _ := newService(t)
	l := new(recordingListener)
	svc.AddListener(l)

	_, _, err := svc.SubmitRSVP(ctx, dinner.Current, "Alice", dinner.NewRSVP{Party: dinner.Party{Adults: 2}})
	require.NoError(t, err)
	_, err = svc.UpdateDetail(ctx, dinner.Next, dinner.UpdateDetail{Field: dinner.Theme, Value: "Tacos"})
	require.NoError(t, err)

	e, err := svc.Archive(ctx, "Organizer")
	require.NoError(t, err)
	assert.Equal(t, "dinner_20240608", e.Archived.ID)
	assert.Equal(t, "Organizer", e.Archived.ArchivedBy)
	assert.Equal(t, dinner.TriggerAdmin, e.Trigger)
	assert.Equal(t, 20.0, e.Summary().Donation)

	cur, err := svc.Get(ctx, dinner.Current)
	require.NoError(t, err)
	assert.Equal(t, "dinner_20240615", cur.ID)
	assert.Equal(t, "Tacos", cur.Theme, "next dinner promoted")
	assert.Empty(t, cur.RSVPs)

	next, err := svc.Get(ctx, dinner.Next)
	require.NoError(t, err)
	assert.Equal(t, "dinner_20240622", next.ID)
	assert.Empty(t, next.Theme)

	_, err = svc.Archive(ctx, "Organizer")
	require.NoError(t, err)

	archived, err := svc.Archived(ctx)
	require.NoError(t, err)
	require.Len(t, archived, 2)
	assert.Equal(t, "dinner_20240615", archived[0].ID)
	assert.Equal(t, "dinner_20240608", archived[1].ID)
	assert.Equal(t, 1, archived[1].RSVPCount)

	a, err := svc.GetArchived(ctx, "dinner_20240608")
	require.NoError(t, err)
	assert.Len(t, a.RSVPs, 1)
	assert.NotNil(t, a.Menu[dinner.Drinks])

	_, err = svc.GetArchived(ctx, "dinner_20200101")
	assert.True(t, core.IsNotFound(err))

	assert.Equal(t, []string{"current:" + dinner.OpSubmitRSVP, "next:" + dinner.OpUpdateDetail}, l.changes)
	require.Len(t, l.archives, 2)
	assert.Equal(t, "dinner_20240615", l.archives[0].Current.ID)
}

func TestService_Archive_keepsNextContent(t *testing.T) {
	svc, _ := newService(t)

	item, err := svc.AddMenuItem(ctx, dinner.Next, "Alice", dinner.NewMenuItem{Category: dinner.Sides, Item: "Salad"})
	require.NoError(t, err)
	_, err = svc.AddNote(ctx, dinner.Next, "Bob", dinner.NewNote{Text: "bring chairs"})
	require.NoError(t, err)

	_, err = svc.Archive(ctx, "Organizer")
	require.NoError(t, err)

	cur, err := svc.Get(ctx, dinner.Current)
	require.NoError(t, err)
	assert.Equal(t, "dinner_20240615", cur.ID)
	require.Len(t, cur.Menu[dinner.Sides], 1, "planned items move with the promoted dinner")
	assert.Equal(t, item.ID, cur.Menu[dinner.Sides][0].ID)
	require.Len(t, cur.Notes, 1)
	assert.Empty(t, cur.RSVPs)

	next, err := svc.Get(ctx, dinner.Next)
	require.NoError(t, err)
	assert.Empty(t, next.Menu[dinner.Sides])
	assert.Empty(t, next.Notes)
}

func TestService_ArchiveIfDue(t *testing.T) {
	svc, _ := newService(t)
	l := new(recordingListener)
	svc.AddListener(l)

	_, due, err := svc.ArchiveIfDue(ctx)
	require.NoError(t, err)
	assert.False(t, due, "wednesday")

	// saturday evening, after the archive hour
	svc.SetClock(testutil.FixedClock(2024, time.June, 8, 20))
	e, due, err := svc.ArchiveIfDue(ctx)
	require.NoError(t, err)
	require.True(t, due)
	assert.Equal(t, "dinner_20240608", e.Archived.ID)
	assert.Equal(t, dinner.TriggerScheduler, e.Archived.ArchivedBy)
	assert.Equal(t, dinner.TriggerScheduler, e.Trigger)

	_, due, err = svc.ArchiveIfDue(ctx)
	require.NoError(t, err)
	assert.False(t, due, "already archived today")

	cur, err := svc.Get(ctx, dinner.Current)
	require.NoError(t, err)
	assert.Equal(t, "dinner_20240615", cur.ID)
	assert.Len(t, l.archives, 1)
}

func TestService_ArchiveIfDue_missedWeek(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Get(ctx, dinner.Current)
	require.NoError(t, err)

	// the service was down for more than a week
	svc.SetClock(testutil.FixedClock(2024, time.June, 17, 9))
	_, due, err := svc.ArchiveIfDue(ctx)
	require.NoError(t, err)
	require.True(t, due)

	cur, err := svc.Get(ctx, dinner.Current)
	require.NoError(t, err)
	assert.Equal(t, "dinner_20240622", cur.ID)

	next, err := svc.Get(ctx, dinner.Next)
	require.NoError(t, err)
	assert.Equal(t, "dinner_20240629", next.ID)
}

func TestService_CheckUpdates(t *testing.T) {
	svc, _ := newService(t)

	u, err := svc.CheckUpdates(ctx, 0)
	require.NoError(t, err)
	require.True(t, u.HasUpdates)
	assert.Equal(t, dinner.Sections, u.Sections)
	require.NotNil(t, u.Dinner)
	assert.Equal(t, "dinner_20240608", u.Dinner.ID)
	require.NotNil(t, u.Summary)
	ts := u.Timestamp
	assert.Positive(t, ts)

	u, err = svc.CheckUpdates(ctx, ts)
	require.NoError(t, err)
	assert.False(t, u.HasUpdates)
	assert.Equal(t, ts, u.Timestamp)
	assert.Nil(t, u.Dinner)

	future := ts + int64(time.Hour/time.Millisecond)
	u, err = svc.CheckUpdates(ctx, future)
	require.NoError(t, err)
	assert.False(t, u.HasUpdates)
	assert.Equal(t, future, u.Timestamp)

	_, err = svc.AddNote(ctx, dinner.Current, "Alice", dinner.NewNote{Text: "hi"})
	require.NoError(t, err)
	u, err = svc.CheckUpdates(ctx, ts)
	require.NoError(t, err)
	require.True(t, u.HasUpdates)
	assert.Greater(t, u.Timestamp, ts)
	assert.Len(t, u.Dinner.Notes, 1)

	// changes to the next dinner are not reported
	ts = u.Timestamp
	_, err = svc.AddNote(ctx, dinner.Next, "Alice", dinner.NewNote{Text: "later"})
	require.NoError(t, err)
	u, err = svc.CheckUpdates(ctx, ts)
	require.NoError(t, err)
	assert.False(t, u.HasUpdates)
}

package emailsvc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/dinner"
	"github.com/trezcool/potluck/core/settings"
)

func archiveEvent() dinner.ArchiveEvent {
	ts := time.Date(2024, 6, 6, 9, 30, 0, 0, time.UTC)
	var e dinner.ArchiveEvent
	e.Archived.ID = "dinner_20240608"
	e.Archived.Date = "2024-06-08"
	e.Archived.Theme = "Tacos"
	e.Archived.ArchivedBy = "Organizer"
	e.Archived.RSVPs = []dinner.RSVP{
		{Name: "Alice", Party: dinner.Party{Adults: 2, Teens: 1}, Timestamp: ts},
		{Name: "Bob, Jr.", Party: dinner.Party{Children: 1}, Timestamp: ts},
	}
	e.Archived.Menu = map[dinner.Category][]dinner.MenuItem{dinner.Sides: {{ID: "1", Item: "Salad", Name: "Alice"}}}
	e.Current = dinner.Dinner{Date: "2024-06-15", Time: "18:00"}
	e.Rates = settings.Default().DonationAmounts
	return e
}

func TestArchiveMailer(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Mail.Organizers = []string{"Org <org@test.test>", "not an address"}
	mailSvc := NewConsoleServiceMock(conf)
	m := NewArchiveMailer(mailSvc, conf, nopLogger{})

	m.DinnerArchived(context.Background(), archiveEvent())

	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	msg := sent[0]
	require.Len(t, msg.To, 1)
	assert.Equal(t, "org@test.test", msg.To[0].Address)
	assert.Equal(t, "Dinner 2024-06-08 archived", msg.Subject)
	assert.Contains(t, msg.TextContent, "archived by Organizer")
	assert.Contains(t, msg.TextContent, "RSVPs: 2 (4 people")
	assert.Contains(t, msg.TextContent, "$29.00")
	assert.Contains(t, msg.TextContent, "Menu sign-ups: 1")
	assert.Contains(t, msg.TextContent, "Next dinner: 2024-06-15 at 18:00")

	require.Len(t, msg.Attachments, 1)
	at := msg.Attachments[0]
	assert.Equal(t, "dinner_20240608_rsvps.csv", at.Filename)
	assert.Equal(t, "text/csv", at.ContentType)

	raw, err := base64.StdEncoding.DecodeString(at.Content.String())
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"name", "adults", "teens", "children", "under5", "donation", "timestamp"},
		{"Alice", "2", "1", "0", "0", "26.00", "2024-06-06 09:30:00"},
		{"Bob, Jr.", "0", "0", "1", "0", "3.00", "2024-06-06 09:30:00"},
	}, rows)
}

func TestArchiveMailer_noOrganizers(t *testing.T) {
	conf := core.NewTestConfig()
	mailSvc := NewConsoleServiceMock(conf)
	m := NewArchiveMailer(mailSvc, conf, nopLogger{})

	m.DinnerArchived(context.Background(), archiveEvent())
	assert.Empty(t, mailSvc.SentMessages())
}

func TestArchiveMailer_noRSVPs(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Mail.Organizers = []string{"org@test.test"}
	mailSvc := NewConsoleServiceMock(conf)
	m := NewArchiveMailer(mailSvc, conf, nopLogger{})

	e := archiveEvent()
	e.Archived.RSVPs = nil
	m.DinnerArchived(context.Background(), e)

	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Empty(t, sent[0].Attachments)
	assert.Contains(t, sent[0].TextContent, "RSVPs: 0")
}

package emailsvc

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/mail"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/dinner"
)

type (
	// ArchiveMailer sends the organizers a summary of every archived dinner, RSVPs attached as CSV.
	ArchiveMailer struct {
		dinner.NopListener
		mailSvc    core.EmailService
		organizers []mail.Address
		logger     core.Logger
	}

	archiveMailData struct {
		Date       string
		Theme      string
		ArchivedBy string
		RSVPCount  int
		People     int
		Adults     int
		Teens      int
		Children   int
		Under5     int
		Donation   string
		MenuCount  int
		NoteCount  int
		NextDate   string
		NextTime   string
	}
)

var _ dinner.Listener = (*ArchiveMailer)(nil)

func NewArchiveMailer(mailSvc core.EmailService, conf *core.Config, logger core.Logger) *ArchiveMailer {
	return &ArchiveMailer{
		mailSvc:    mailSvc,
		organizers: conf.OrganizerAddresses(),
		logger:     logger,
	}
}

func (m *ArchiveMailer) DinnerArchived(_ context.Context, e dinner.ArchiveEvent) {
	if len(m.organizers) == 0 {
		return
	}
	msg, err := newArchiveMessage(e, m.organizers)
	if err != nil {
		m.logger.Error("preparing archive email", err)
		return
	}
	m.mailSvc.SendMessages(msg)
}

func newArchiveMessage(e dinner.ArchiveEvent, to []mail.Address) (*core.EmailMessage, error) {
	s := e.Summary()
	msg := &core.EmailMessage{
		To:           to,
		Subject:      fmt.Sprintf("Dinner %s archived", e.Archived.Date),
		TemplateName: "dinner_archived",
		TemplateData: archiveMailData{
			Date:       e.Archived.Date,
			Theme:      e.Archived.Theme,
			ArchivedBy: e.Archived.ArchivedBy,
			RSVPCount:  s.Count,
			People:     s.People,
			Adults:     s.Adults,
			Teens:      s.Teens,
			Children:   s.Children,
			Under5:     s.Under5,
			Donation:   strconv.FormatFloat(s.Donation, 'f', 2, 64),
			MenuCount:  e.Archived.MenuCount(),
			NoteCount:  len(e.Archived.Notes),
			NextDate:   e.Current.Date,
			NextTime:   e.Current.Time,
		},
	}
	if len(e.Archived.RSVPs) == 0 {
		return msg, nil
	}

	csvData, err := rsvpCSV(e)
	if err != nil {
		return nil, errors.Wrap(err, "writing rsvp csv")
	}
	if err = msg.Attach(bytes.NewReader(csvData), e.Archived.ID+"_rsvps.csv", "text/csv"); err != nil {
		return nil, errors.Wrap(err, "attaching rsvp csv")
	}
	return msg, nil
}

func rsvpCSV(e dinner.ArchiveEvent) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"name", "adults", "teens", "children", "under5", "donation", "timestamp"})
	for _, r := range e.Archived.RSVPs {
		_ = w.Write([]string{
			r.Name,
			strconv.Itoa(r.Adults),
			strconv.Itoa(r.Teens),
			strconv.Itoa(r.Children),
			strconv.Itoa(r.Under5),
			strconv.FormatFloat(dinner.Donation(e.Rates, r.Party), 'f', 2, 64),
			r.Timestamp.Format("2006-01-02 15:04:05"),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

package emailsvc

import (
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/potluck/core"
)

// deliverFunc posts one prepared message to SendGrid.
type deliverFunc func(m *sgmail.SGMailV3) (*rest.Response, error)

type sendgridService struct {
	from        *sgmail.Email
	subjPrefix  string
	frontendURL string
	sandbox     bool
	deliver     deliverFunc
	logger      core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

// NewSendgridService sends messages through the SendGrid v3 API.
// In test mode messages are validated by SendGrid but never delivered.
func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	from := conf.DefaultFromEmail()
	return &sendgridService{
		from:        sgmail.NewEmail(from.Name, from.Address),
		subjPrefix:  "[" + conf.AppName + "] ",
		frontendURL: conf.FrontendURL,
		sandbox:     conf.TestMode,
		deliver:     sendgrid.NewSendClient(conf.Mail.SendgridAPIKey).Send,
		logger:      logger,
	}
}

// SendMessages delivers the batch in order on a single goroutine.
func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	go func() {
		for _, msg := range messages {
			if err := svc.sendMessage(msg); err != nil {
				svc.logger.Error("sending email", err, map[string]interface{}{"subject": msg.Subject})
			}
		}
	}()
}

func (svc *sendgridService) sendMessage(msg *core.EmailMessage) error {
	if err := msg.Render(svc.frontendURL); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return nil
	}

	res, err := svc.deliver(svc.prepare(msg))
	if err != nil {
		return errors.Wrap(err, "posting to sendgrid")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	svc.logger.Debug("email sent", map[string]interface{}{"subject": msg.Subject, "to": len(msg.To)})
	return nil
}

func (svc *sendgridService) prepare(msg *core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	p.AddTos(sgEmails(msg.To)...)
	p.AddCCs(sgEmails(msg.Cc)...)
	p.AddBCCs(sgEmails(msg.Bcc)...)

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	if msg.TemplateName != "" {
		// groups the stats of e.g. every dinner_archived mail
		m.AddCategories(msg.TemplateName)
	}
	if svc.sandbox {
		m.SetMailSettings(sgmail.NewMailSettings().SetSandboxMode(sgmail.NewSetting(true)))
	}

	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	for _, a := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     a.Content.String(),
			Type:        a.ContentType,
			Filename:    a.Filename,
			Disposition: "attachment",
		})
	}
	return m
}

func sgEmails(addrs []mail.Address) []*sgmail.Email {
	emails := make([]*sgmail.Email, 0, len(addrs))
	for _, addr := range addrs {
		emails = append(emails, sgmail.NewEmail(addr.Name, addr.Address))
	}
	return emails
}

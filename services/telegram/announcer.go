// Package telegramsvc announces the next dinner to a Telegram group chat.
package telegramsvc

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/dinner"
)

// Sender is the part of *tgbotapi.BotAPI used to post messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Announcer struct {
	dinner.NopListener
	bot    Sender
	chatID int64
	loc    *time.Location
	logger core.Logger
}

var _ dinner.Listener = (*Announcer)(nil)

// New connects to the bot API with conf.Telegram.Token.
func New(conf *core.Config, logger core.Logger) (*Announcer, error) {
	if conf.Telegram.Token == "" || conf.Telegram.ChatID == 0 {
		return nil, errors.New("telegram token or chat id not configured")
	}
	bot, err := tgbotapi.NewBotAPI(conf.Telegram.Token)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to telegram")
	}
	bot.Debug = conf.Debug
	return NewWithSender(bot, conf.Telegram.ChatID, conf.Location(), logger), nil
}

func NewWithSender(bot Sender, chatID int64, loc *time.Location, logger core.Logger) *Announcer {
	return &Announcer{bot: bot, chatID: chatID, loc: loc, logger: logger}
}

// DinnerArchived posts the new current dinner in the background.
func (a *Announcer) DinnerArchived(_ context.Context, e dinner.ArchiveEvent) {
	msg := tgbotapi.NewMessage(a.chatID, a.text(e))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	go func() {
		if _, err := a.bot.Send(msg); err != nil {
			a.logger.Error("announcing dinner on telegram", errors.Wrap(err, "sending telegram message"))
		}
	}()
}

func (a *Announcer) text(e dinner.ArchiveEvent) string {
	var b strings.Builder
	b.WriteString("<b>🍽️ Next community dinner</b>\n")

	when := e.Current.Date
	if day, err := e.Current.Day(a.loc); err == nil {
		when = day.Format("Monday, January 2")
	}
	fmt.Fprintf(&b, "%s at %s\n", html.EscapeString(when), html.EscapeString(e.Current.Time))
	if e.Current.Theme != "" {
		fmt.Fprintf(&b, "Theme: %s\n", html.EscapeString(e.Current.Theme))
	}
	if e.Current.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", html.EscapeString(e.Current.Location))
	}

	s := e.Summary()
	fmt.Fprintf(&b, "\nLast dinner (%s): %d RSVPs, %d people.\n", html.EscapeString(e.Archived.Date), s.Count, s.People)
	b.WriteString("Sign up for a dish and RSVP!")
	return b.String()
}

// Package reminder nudges the user to check in when a scheduled time passes
// without a check-in for the local day.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"

	"github.com/julianstephens/moodlit/internal/constants"
	"github.com/julianstephens/moodlit/internal/logger"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/utils"
)

// Sender delivers reminder text.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Store is the read surface used to decide whether today is covered.
type Store interface {
	GetCheckIns(ctx context.Context, start, end time.Time) ([]models.CheckIn, error)
}

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender posts reminders to a single chat.
type TelegramSender struct {
	bot    botAPI
	chatID int64
}

// NewTelegramSender authenticates the bot token against the Bot API.
// apiEndpoint is a "%s/%s" URL template for token and method; empty means
// the public endpoint.
func NewTelegramSender(token string, chatID int64, apiEndpoint string) (*TelegramSender, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram reminders need a bot token and a chat id")
	}
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, apiEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	logger.Debug("Telegram bot ready", "username", bot.Self.UserName)
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

func (s *TelegramSender) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(s.chatID, "<b>"+html.EscapeString(constants.AppName)+"</b>\n"+html.EscapeString(text))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram reminder: %w", err)
	}
	return nil
}

// Reminder checks the local store and sends a reminder when the current
// local day has no check-in.
type Reminder struct {
	store  Store
	sender Sender
	loc    *time.Location
	text   string
	now    func() time.Time
}

type Option func(*Reminder)

func WithText(text string) Option {
	return func(r *Reminder) {
		if text != "" {
			r.text = text
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Reminder) { r.now = now }
}

func New(store Store, sender Sender, loc *time.Location, opts ...Option) *Reminder {
	if loc == nil {
		loc = time.Local
	}
	r := &Reminder{
		store:  store,
		sender: sender,
		loc:    loc,
		text:   constants.DefaultReminderText,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tick sends at most one reminder and reports whether it did.
func (r *Reminder) Tick(ctx context.Context) (bool, error) {
	start, end := utils.DayBounds(r.now().In(r.loc))
	checkIns, err := r.store.GetCheckIns(ctx, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to read today's check-ins: %w", err)
	}
	if len(checkIns) > 0 {
		logger.Debug("Skipping reminder, already checked in", "count", len(checkIns))
		return false, nil
	}
	if err := r.sender.Send(ctx, r.text); err != nil {
		return false, err
	}
	logger.Info("Sent check-in reminder", "day", start.Format(constants.DateFormat))
	return true, nil
}

// Run schedules Tick on a cron spec in the reminder's location and blocks
// until ctx is done.
func (r *Reminder) Run(ctx context.Context, spec string) error {
	if spec == "" {
		spec = constants.DefaultReminderSchedule
	}
	c := cron.New(cron.WithLocation(r.loc))
	_, err := c.AddFunc(spec, func() {
		if _, err := r.Tick(ctx); err != nil {
			logger.Error("Reminder failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}

	c.Start()
	logger.Info("Reminder scheduled", "schedule", spec, "timezone", r.loc.String())
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// ValidateSchedule reports whether spec is a standard five-field cron line.
func ValidateSchedule(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}

// Fallback tries each sender in order until one succeeds.
type Fallback []Sender

func (f Fallback) Send(ctx context.Context, text string) error {
	if len(f) == 0 {
		return errors.New("no reminder channel configured")
	}
	var errs []error
	for _, s := range f {
		err := s.Send(ctx, text)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

package system

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/moodlit/internal/cli"
	"github.com/julianstephens/moodlit/internal/constants"
	"github.com/julianstephens/moodlit/internal/logger"
	"github.com/julianstephens/moodlit/internal/notifier"
	"github.com/julianstephens/moodlit/internal/reminder"
)

type RemindCmd struct {
	Schedule       string `env:"MOODLIT_REMIND_SCHEDULE" help:"Cron schedule in the configured timezone. Defaults to weekdays at 17:00."`
	Text           string `env:"MOODLIT_REMIND_TEXT" help:"Reminder text."`
	Once           bool   `help:"Check once and exit instead of running the schedule."`
	DryRun         bool   `help:"Print reminders to stdout instead of sending them."`
	Tray           bool   `default:"true" negatable:"" help:"Send through the desktop tray app."`
	TelegramToken  string `env:"MOODLIT_TELEGRAM_TOKEN" help:"Telegram bot token."`
	TelegramChatID int64  `env:"MOODLIT_TELEGRAM_CHAT_ID" help:"Telegram chat to remind."`
	TelegramAPI    string `env:"MOODLIT_TELEGRAM_API" hidden:"" help:"Bot API endpoint template."`
}

func (c *RemindCmd) Validate() error {
	if c.Schedule == "" {
		return nil
	}
	if err := reminder.ValidateSchedule(c.Schedule); err != nil {
		return fmt.Errorf("invalid --schedule: %w", err)
	}
	return nil
}

// printSender writes reminders instead of delivering them.
type printSender struct {
	w io.Writer
}

func (p printSender) Send(_ context.Context, text string) error {
	_, err := fmt.Fprintln(p.w, "[DryRun] "+text)
	return err
}

func (c *RemindCmd) sender(ctx *cli.Context) (reminder.Sender, error) {
	if c.DryRun {
		return printSender{w: ctx.Out}, nil
	}
	var senders reminder.Fallback
	if c.Tray {
		senders = append(senders, notifier.New())
	}
	if c.TelegramToken != "" {
		tg, err := reminder.NewTelegramSender(c.TelegramToken, c.TelegramChatID, c.TelegramAPI)
		if err != nil {
			return nil, err
		}
		senders = append(senders, tg)
	}
	if len(senders) == 0 {
		return nil, errors.New("no reminder channel: enable --tray or set MOODLIT_TELEGRAM_TOKEN")
	}
	return senders, nil
}

func (c *RemindCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	sender, err := c.sender(ctx)
	if err != nil {
		return err
	}

	opts := []reminder.Option{reminder.WithClock(ctx.Now)}
	if c.Text != "" {
		opts = append(opts, reminder.WithText(c.Text))
	}
	r := reminder.New(ctx.Store, sender, st.Location(), opts...)

	if c.Once {
		sent, err := r.Tick(bg)
		if err != nil {
			return fmt.Errorf("failed to send reminder: %w", err)
		}
		if !sent {
			ctx.Println("Already checked in today; no reminder sent.")
		}
		return nil
	}

	schedule := c.Schedule
	if schedule == "" {
		schedule = constants.DefaultReminderSchedule
	}
	sigCtx, stop := signal.NotifyContext(bg, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx.Printf("Reminding on %q (%s). Press Ctrl+C to stop.\n", schedule, st.Location())
	if err := r.Run(sigCtx, schedule); err != nil {
		return err
	}
	logger.Info("Reminder stopped")
	return nil
}

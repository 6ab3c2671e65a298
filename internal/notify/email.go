package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/tasker-api/internal/config"
	"gopkg.in/gomail.v2"
)

// ErrNotConfigured is returned by EmailNotifier when SMTP settings are
// missing. The dispatcher counts it as skipped rather than failed.
var ErrNotConfigured = errors.New("email delivery not configured")

// ErrSendFailed wraps SMTP delivery failures.
var ErrSendFailed = errors.New("reminder email could not be sent")

// deadlineLayout formats deadlines in reminder bodies.
const deadlineLayout = "Mon, 02 Jan 2006 15:04 MST"

// EmailNotifier sends reminders over SMTP.
type EmailNotifier struct {
	cfg    config.EmailConfig
	sender gomail.Sender
	logger *slog.Logger
}

var _ Notifier = (*EmailNotifier)(nil)

// EmailOption configures an EmailNotifier.
type EmailOption func(*EmailNotifier)

// WithSender delivers through s instead of opening an SMTP session to the
// configured server for every message.
func WithSender(s gomail.Sender) EmailOption {
	return func(n *EmailNotifier) {
		n.sender = s
	}
}

// NewEmailNotifier creates an EmailNotifier.
func NewEmailNotifier(cfg config.EmailConfig, logger *slog.Logger, opts ...EmailOption) *EmailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &EmailNotifier{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "email_notifier")),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify implements Notifier.
func (n *EmailNotifier) Notify(ctx context.Context, msg Message) error {
	if !n.cfg.Enabled() {
		n.logger.Debug("email config missing, skip notification",
			slog.String("task_id", msg.TaskID.String()))
		return ErrNotConfigured
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("reminder for task %s has no recipient", msg.TaskID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := buildMessage(n.cfg.From, msg)

	sender := n.sender
	if sender == nil {
		sender = smtpSender(ctx, n.cfg)
	}
	// gomail.Send formats the sender error with %v, so only its text survives.
	if err := gomail.Send(sender, m); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	n.logger.Info("reminder email sent", slog.String("task_id", msg.TaskID.String()))
	return nil
}

func buildMessage(from string, msg Message) *gomail.Message {
	deadline := msg.Deadline.UTC().Format(deadlineLayout)
	name := msg.FirstName
	if name == "" {
		name = "there"
	}

	m := gomail.NewMessage(gomail.SetEncoding(gomail.Unencoded))
	m.SetHeader("From", from)
	m.SetAddressHeader("To", msg.To, msg.FirstName)
	m.SetHeader("Subject", fmt.Sprintf("Reminder: %q is due soon", msg.Title))
	m.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYour task %q is due at %s.\n", name, msg.Title, deadline))
	m.AddAlternative("text/html", fmt.Sprintf(
		"<p>Hi %s,</p><p>Your task <strong>%s</strong> is due at %s.</p>",
		html.EscapeString(name), html.EscapeString(msg.Title), deadline))
	return m
}

// LogNotifier writes reminders to the log instead of sending them.
type LogNotifier struct {
	logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With(slog.String("component", "log_notifier"))}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "task due soon",
		slog.String("task_id", msg.TaskID.String()),
		slog.String("title", msg.Title),
		slog.Time("deadline", msg.Deadline.UTC()),
		slog.Duration("remaining", time.Until(msg.Deadline).Round(time.Minute)))
	return nil
}

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/phrazzld/tasker-api/internal/config"
	"gopkg.in/gomail.v2"
)

const (
	defaultSMTPPort = 587
	implicitTLSPort = 465
)

// smtpSender returns a gomail.Sender that holds one SMTP session for a single
// message. The connection deadline follows ctx, so a server that stops
// responding mid-conversation fails the send instead of blocking the worker.
func smtpSender(ctx context.Context, cfg config.EmailConfig) gomail.SendFunc {
	return func(from string, to []string, msg io.WriterTo) error {
		port := cfg.SMTPPort
		if port == 0 {
			port = defaultSMTPPort
		}

		var dialer net.Dialer
		raw, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(port)))
		if err != nil {
			return err
		}
		defer func() { _ = raw.Close() }()

		if deadline, ok := ctx.Deadline(); ok {
			if err := raw.SetDeadline(deadline); err != nil {
				return err
			}
		}
		stop := context.AfterFunc(ctx, func() { _ = raw.SetDeadline(time.Now()) })
		defer stop()

		tlsConfig := &tls.Config{ServerName: cfg.SMTPHost, MinVersion: tls.VersionTLS12}
		conn := raw
		if port == implicitTLSPort {
			conn = tls.Client(raw, tlsConfig)
		}

		c, err := smtp.NewClient(conn, cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("smtp greeting: %w", err)
		}
		defer func() { _ = c.Close() }()

		if port != implicitTLSPort {
			if ok, _ := c.Extension("STARTTLS"); ok {
				if err := c.StartTLS(tlsConfig); err != nil {
					return fmt.Errorf("smtp starttls: %w", err)
				}
			}
		}
		if cfg.SMTPUser != "" {
			if ok, _ := c.Extension("AUTH"); ok {
				if err := c.Auth(smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)); err != nil {
					return fmt.Errorf("smtp auth: %w", err)
				}
			}
		}

		if err := c.Mail(from); err != nil {
			return err
		}
		for _, addr := range to {
			if err := c.Rcpt(addr); err != nil {
				return err
			}
		}
		w, err := c.Data()
		if err != nil {
			return err
		}
		if _, err := msg.WriteTo(w); err != nil {
			_ = w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		return c.Quit()
	}
}

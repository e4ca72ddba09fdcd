package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/eatmeetclub/api/internal/model"
)

// Notifier delivers a notification to its recipient
type Notifier interface {
	Deliver(ctx context.Context, n *model.Notification) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, n *model.Notification) error

func (f NotifierFunc) Deliver(ctx context.Context, n *model.Notification) error {
	return f(ctx, n)
}

// ChannelRouter picks a Notifier by channel, falling back to Default
type ChannelRouter struct {
	Email   Notifier
	SMS     Notifier
	Default Notifier
}

func (r *ChannelRouter) Deliver(ctx context.Context, n *model.Notification) error {
	var target Notifier
	switch n.Channel {
	case model.ChannelEmail:
		target = r.Email
	case model.ChannelSMS:
		target = r.SMS
	}
	if target == nil {
		target = r.Default
	}
	if target == nil {
		return fmt.Errorf("no notifier for channel %q", n.Channel)
	}
	return target.Deliver(ctx, n)
}

// LogNotifier writes notifications to the log
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Deliver(ctx context.Context, n *model.Notification) error {
	l.logger.InfoContext(ctx, "notify",
		"channel", n.Channel,
		"to", n.To,
		"subject", n.Subject,
		"body", n.Body,
	)
	return nil
}

// SMTPConfig holds mail server settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier sends email notifications through an SMTP relay
type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now  func() time.Time
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

func (s *SMTPNotifier) Deliver(ctx context.Context, n *model.Notification) error {
	if n.Channel != model.ChannelEmail {
		return fmt.Errorf("smtp cannot deliver %q notifications", n.Channel)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.send(addr, auth, envelopeAddress(s.cfg.From), []string{n.To}, s.message(n)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPNotifier) message(n *model.Notification) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", n.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(n.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(n.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// envelopeAddress extracts addr from "Name <addr>"
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return from
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

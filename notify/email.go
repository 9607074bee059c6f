package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig configures plain-text email delivery.
type SMTPConfig struct {
	Addr string // host:port
	// Username and Password enable PLAIN auth when both are set.
	Username string
	Password string
	From     string
}

// SMTPSender delivers mail over SMTP.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender builds an SMTP sender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Addr == "" || cfg.From == "" {
		return nil, fmt.Errorf("notify: smtp addr and from address are required")
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send delivers one plain-text message. The context deadline is not
// honored mid-transaction; net/smtp has no context support.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		host := s.cfg.Addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, host)
	}

	msg := buildMessage(s.cfg.From, to, subject, body)
	if err := smtp.SendMail(s.cfg.Addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("notify: send mail to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

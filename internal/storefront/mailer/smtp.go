package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/cedarmarket/storefront/internal/storefront/domain"
)

// SMTPConfig carries the upstream relay settings.
type SMTPConfig struct {
	Addr     string // host:port
	From     string
	Username string // empty disables AUTH
	Password string
}

// SMTPMailer sends OTP mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

var subjects = map[domain.OTPPurpose]string{
	domain.OTPPurposeSignup: "Confirm your Cedar Market account",
	domain.OTPPurposeLogin:  "Your Cedar Market sign-in code",
	domain.OTPPurposeReset:  "Reset your Cedar Market password",
}

func (m *SMTPMailer) SendOTP(ctx context.Context, email, code string, purpose domain.OTPPurpose) error {
	subject, ok := subjects[purpose]
	if !ok {
		return fmt.Errorf("mailer: no template for purpose %q", purpose)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", email)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Your verification code is %s. It expires in 5 minutes.\r\n", code)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		host := m.cfg.Addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, host)
	}

	// net/smtp has no context support; honor cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.send(m.cfg.Addr, auth, m.cfg.From, []string{email}, []byte(b.String())); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", email, err)
	}
	return nil
}

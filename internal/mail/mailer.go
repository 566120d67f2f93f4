package mail

import (
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"famnet-backend/internal/config"
	"famnet-backend/internal/logger"
)

// Sender delivers a single email message.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func (s *smtpSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return s.dialer.DialAndSend(m)
}

// Mailer sends notification emails through a primary SMTP relay, falling back
// to a secondary relay when the primary fails. Delivery failures are logged,
// never returned to callers: account flows must not break on mail outages.
type Mailer struct {
	primary  Sender
	fallback Sender
	baseURL  string
}

func NewMailer(cfg config.MailConfig) *Mailer {
	m := &Mailer{baseURL: cfg.BaseURL}
	if cfg.Host != "" {
		m.primary = &smtpSender{
			dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
			from:   cfg.From,
		}
	}
	if cfg.FallbackHost != "" {
		from := cfg.FallbackFrom
		if from == "" {
			from = cfg.From
		}
		m.fallback = &smtpSender{
			dialer: gomail.NewDialer(cfg.FallbackHost, cfg.FallbackPort, cfg.Username, cfg.Password),
			from:   from,
		}
	}
	return m
}

// NewMailerWithSenders is used by tests to inject fake senders.
func NewMailerWithSenders(primary, fallback Sender, baseURL string) *Mailer {
	return &Mailer{primary: primary, fallback: fallback, baseURL: baseURL}
}

func (m *Mailer) send(to, subject, htmlBody string) {
	if m.primary == nil && m.fallback == nil {
		logger.Log.Debug("mail delivery skipped, no smtp configured", zap.String("to", to))
		return
	}

	var primaryErr error
	if m.primary != nil {
		primaryErr = m.primary.Send(to, subject, htmlBody)
		if primaryErr == nil {
			return
		}
		logger.Log.Warn("primary mail delivery failed", zap.String("to", to), zap.Error(primaryErr))
	}

	if m.fallback != nil {
		if err := m.fallback.Send(to, subject, htmlBody); err != nil {
			logger.Log.Error("mail delivery failed on both relays",
				zap.String("to", to),
				zap.NamedError("primary", primaryErr),
				zap.NamedError("fallback", err))
		}
		return
	}

	logger.Log.Error("mail delivery failed", zap.String("to", to), zap.Error(primaryErr))
}

func (m *Mailer) SendVerificationEmail(to, token string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.baseURL, token)
	body := fmt.Sprintf(`<p>Welcome to FamNet!</p>
<p>Please confirm your email address by clicking the link below:</p>
<p><a href="%s">Verify email</a></p>
<p>If you did not create an account, you can ignore this message.</p>`, link)
	m.send(to, "Confirm your FamNet account", body)
}

func (m *Mailer) SendPasswordResetEmail(to, token string) {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, token)
	body := fmt.Sprintf(`<p>We received a request to reset your password.</p>
<p><a href="%s">Reset password</a></p>
<p>The link expires in one hour. If you did not request a reset, ignore this message.</p>`, link)
	m.send(to, "Reset your FamNet password", body)
}

func (m *Mailer) SendFamilyInviteEmail(to, familyName, inviteCode string) {
	body := fmt.Sprintf(`<p>You have been invited to join the family <strong>%s</strong> on FamNet.</p>
<p>Use invite code <strong>%s</strong> to join.</p>`, familyName, inviteCode)
	m.send(to, "You are invited to a FamNet family", body)
}

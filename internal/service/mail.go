package service

import (
	"errors"
	"fmt"
	"net/url"

	"notedai/api/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrInvalidRecipient = errors.New("invalid email address")

// Mailer sends account mails over SMTP. When mail is disabled the links are
// only logged, which is enough for local development.
type Mailer struct {
	cfg     config.MailConfig
	baseURL string

	// Deliver hands a finished message to the SMTP server
	Deliver func(m *gomail.Message) error
}

func NewMailer(cfg config.MailConfig, baseURL string) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.SenderAddress, cfg.Password)

	return &Mailer{
		cfg:     cfg,
		baseURL: baseURL,
		Deliver: func(m *gomail.Message) error {
			return d.DialAndSend(m)
		},
	}
}

// Link builds a frontend link carrying token as a query parameter.
func (m *Mailer) Link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", m.baseURL, path, url.QueryEscape(token))
}

func (m *Mailer) SendVerification(to, token string) error {
	link := m.Link("/verify", token)

	return m.send(to, "Verify your email to start using Noted.AI",
		fmt.Sprintf("Click <a href='%v'>here</a> to verify your account.<br><br>This link will expire in 30 minutes.", link),
		link)
}

func (m *Mailer) SendPasswordReset(to, token string) error {
	link := m.Link("/reset-password", token)

	return m.send(to, "Reset your Noted.AI password",
		fmt.Sprintf("Click <a href='%v'>here</a> to choose a new password.<br><br>This link will expire in 1 hour. If you didn't ask for a reset you can ignore this mail.", link),
		link)
}

func (m *Mailer) send(to, subject, body, link string) error {
	if !m.cfg.Enabled {
		zap.L().Debug("Mail disabled, not sending", zap.String("to", to), zap.String("subject", subject), zap.String("link", link))
		return nil
	}

	if to == "" || to == m.cfg.SenderAddress {
		return ErrInvalidRecipient
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SenderAddress)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.Deliver(msg); err != nil {
		return fmt.Errorf("failed to send mail, %w", err)
	}

	return nil
}

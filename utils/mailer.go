package utils

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Email is one outbound email message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// MailServiceInterface is the email channel collaborator the dispatch engine
// talks to. Send returns the provider message id on success.
type MailServiceInterface interface {
	Send(email Email) (string, error)
}

// SMTPMailer sends campaign email over SMTP.
type SMTPMailer struct {
	dialer    *gomail.Dialer
	fromName  string
	fromEmail string
	logger    *log.Logger
}

func NewSMTPMailer(host string, port int, username, password, fromName, fromEmail string, logger *log.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer:    gomail.NewDialer(host, port, username, password),
		fromName:  fromName,
		fromEmail: fromEmail,
		logger:    logger,
	}
}

func (m *SMTPMailer) Send(email Email) (string, error) {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, m.fromName)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.HTML)

	// SMTP has no provider-assigned id to hand back, so we mint one and set
	// it as the Message-ID header for webhook correlation.
	messageID := uuid.New().String()
	msg.SetHeader("Message-ID", fmt.Sprintf("<%s@reputely>", messageID))

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Printf("Failed to send email to %s: %v", email.To, err)
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Printf("Email sent to %s: %s", email.To, messageID)
	return messageID, nil
}

var _ MailServiceInterface = (*SMTPMailer)(nil)

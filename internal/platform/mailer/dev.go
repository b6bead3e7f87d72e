package mailer

import (
	"github.com/glossline/salon-bookings/pkg/logger"
)

// DevMailer logs emails instead of sending them. Default in local dev.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, subject, htmlBody string) error {
	logger.Info("[DEV MAIL] email not sent",
		"to", toEmail,
		"subject", subject,
		"body", htmlBody,
	)
	return nil
}

package mailer

// Service is the notification port. Delivery is best-effort: callers other
// than the admin-credential flow log a send failure and move on.
type Service interface {
	Send(toEmail, subject, htmlBody string) error
}

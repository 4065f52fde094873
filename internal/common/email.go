package common

// Email is a single outbound message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// EmailSender delivers customer-facing mail.
type EmailSender interface {
	Send(to, subject, html string) error
}

// NopEmailSender satisfies EmailSender without delivering anything. Used when
// no mail backend is configured.
type NopEmailSender struct{}

// Send implements EmailSender.
func (NopEmailSender) Send(string, string, string) error { return nil }

// InMemoryEmail records messages instead of sending them, for tests.
type InMemoryEmail struct {
	Outbox []Email
}

// Send appends the message to the outbox.
func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

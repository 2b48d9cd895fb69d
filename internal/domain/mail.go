package domain

// MailMessage is a templated transactional email.
type MailMessage struct {
	To       string
	Name     string
	Subject  string
	Template string
	Data     map[string]any
}

package email

// Message is one outgoing email. Either body may be empty.
type Message struct {
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
	// Template names the template the message was rendered from, for metrics.
	Template string
}

type TemplateData map[string]any

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

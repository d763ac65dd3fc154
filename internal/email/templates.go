package email

import (
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	texttemplate "text/template"
)

// Template names.
const (
	TemplateVerifyEmail      = "verify_email"
	TemplatePasswordReset    = "password_reset"
	TemplateRequestCreated   = "request_created"
	TemplateRequestAccepted  = "request_accepted"
	TemplateRequestDeclined  = "request_declined"
	TemplateRequestExpired   = "request_expired"
	TemplateRequestCompleted = "request_completed"
	TemplatePaymentSucceeded = "payment_succeeded"
	TemplatePaymentFailed    = "payment_failed"
	TemplateNewMessage       = "new_message"
)

type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

type compiled struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

// TemplateManager holds subject, plain text and HTML templates by name.
// It starts with built-in defaults; LoadTemplates overrides HTML bodies
// from <name>.html files.
type TemplateManager struct {
	mu        sync.RWMutex
	templates map[string]*compiled
}

func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{templates: make(map[string]*compiled)}
	for name, d := range defaultTemplates {
		if err := tm.AddTemplate(name, d.subject, d.text, d.html); err != nil {
			panic(fmt.Sprintf("built-in email template %s: %v", name, err))
		}
	}
	return tm
}

func (tm *TemplateManager) AddTemplate(name, subject, text, html string) error {
	c := &compiled{}
	var err error
	if c.subject, err = texttemplate.New(name + ".subject").Parse(subject); err != nil {
		return fmt.Errorf("parse subject: %w", err)
	}
	if c.text, err = texttemplate.New(name + ".txt").Parse(text); err != nil {
		return fmt.Errorf("parse text body: %w", err)
	}
	if html != "" {
		if c.html, err = htmltemplate.New(name + ".html").Parse(html); err != nil {
			return fmt.Errorf("parse html body: %w", err)
		}
	}

	tm.mu.Lock()
	tm.templates[name] = c
	tm.mu.Unlock()
	return nil
}

func (tm *TemplateManager) setHTML(name, html string) error {
	tpl, err := htmltemplate.New(name + ".html").Parse(html)
	if err != nil {
		return fmt.Errorf("parse html body: %w", err)
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	c, ok := tm.templates[name]
	if !ok {
		return fmt.Errorf("unknown email template: %s", name)
	}
	cp := *c
	cp.html = tpl
	tm.templates[name] = &cp
	return nil
}

// LoadTemplates replaces HTML bodies with <name>.html files found under
// dirPath. Files for unknown template names are rejected.
func (tm *TemplateManager) LoadTemplates(dirPath string) error {
	return filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read template file %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), ".html")
		if err := tm.setHTML(name, string(content)); err != nil {
			return fmt.Errorf("template %s: %w", name, err)
		}
		return nil
	})
}

func (tm *TemplateManager) Render(name string, data TemplateData) (*Rendered, error) {
	tm.mu.RLock()
	c, ok := tm.templates[name]
	tm.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("template not found: %s", name)
	}

	var out Rendered
	var b strings.Builder
	if err := c.subject.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("render %s subject: %w", name, err)
	}
	out.Subject = strings.TrimSpace(b.String())

	b.Reset()
	if err := c.text.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("render %s text: %w", name, err)
	}
	out.Text = b.String()

	if c.html != nil {
		b.Reset()
		if err := c.html.Execute(&b, data); err != nil {
			return nil, fmt.Errorf("render %s html: %w", name, err)
		}
		out.HTML = b.String()
	}
	return &out, nil
}

func (tm *TemplateManager) Names() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	names := make([]string, 0, len(tm.templates))
	for name := range tm.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type templateDef struct {
	subject, text, html string
}

const htmlLayoutStart = `<!DOCTYPE html><html><body style="font-family:sans-serif;color:#222">`
const htmlLayoutEnd = `<p style="color:#888;font-size:12px">EventHire</p></body></html>`

var defaultTemplates = map[string]templateDef{
	TemplateVerifyEmail: {
		subject: "Confirm your EventHire email",
		text:    "Welcome to EventHire, {{.Name}}.\n\nConfirm your email: {{.AppURL}}/verify-email?token={{.Token}}\n",
		html: htmlLayoutStart + `<p>Welcome to EventHire, {{.Name}}.</p>
<p><a href="{{.AppURL}}/verify-email?token={{.Token}}">Confirm your email</a></p>` + htmlLayoutEnd,
	},
	TemplatePasswordReset: {
		subject: "Reset your EventHire password",
		text:    "Use this link within one hour to choose a new password: {{.AppURL}}/reset-password?token={{.Token}}\n\nIf you did not ask for a reset, ignore this email.\n",
		html: htmlLayoutStart + `<p>Use this link within one hour to choose a new password:</p>
<p><a href="{{.AppURL}}/reset-password?token={{.Token}}">Reset password</a></p>
<p>If you did not ask for a reset, ignore this email.</p>` + htmlLayoutEnd,
	},
	TemplateRequestCreated: {
		subject: "New booking request: {{.EventName}}",
		text:    "{{.OrganizerName}} sent you a request for {{.EventName}} on {{.EventDate}}.\nAnswer before {{.ExpiresAt}}: {{.AppURL}}/requests/{{.RequestID}}\n",
		html: htmlLayoutStart + `<p>{{.OrganizerName}} sent you a request for <b>{{.EventName}}</b> on {{.EventDate}}.</p>
<p>Answer before {{.ExpiresAt}}: <a href="{{.AppURL}}/requests/{{.RequestID}}">open request</a></p>` + htmlLayoutEnd,
	},
	TemplateRequestAccepted: {
		subject: "{{.ProfessionalName}} accepted your request for {{.EventName}}",
		text:    "{{.ProfessionalName}} accepted your request for {{.EventName}}.\nDeposit due: {{.Deposit}}. Pay here: {{.AppURL}}/requests/{{.RequestID}}\n",
		html: htmlLayoutStart + `<p>{{.ProfessionalName}} accepted your request for <b>{{.EventName}}</b>.</p>
<p>Deposit due: {{.Deposit}}. <a href="{{.AppURL}}/requests/{{.RequestID}}">Pay deposit</a></p>` + htmlLayoutEnd,
	},
	TemplateRequestDeclined: {
		subject: "Your request for {{.EventName}} was declined",
		text:    "{{.ProfessionalName}} declined your request for {{.EventName}}.{{if .Reason}}\nReason: {{.Reason}}{{end}}\n",
		html: htmlLayoutStart + `<p>{{.ProfessionalName}} declined your request for <b>{{.EventName}}</b>.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}` + htmlLayoutEnd,
	},
	TemplateRequestExpired: {
		subject: "Your request for {{.EventName}} expired",
		text:    "Your request for {{.EventName}} was not answered in time and has expired.\n",
		html:    htmlLayoutStart + `<p>Your request for <b>{{.EventName}}</b> was not answered in time and has expired.</p>` + htmlLayoutEnd,
	},
	TemplateRequestCompleted: {
		subject: "Booking for {{.EventName}} completed",
		text:    "The booking for {{.EventName}} is marked as completed. Thank you for using EventHire.\n",
		html:    htmlLayoutStart + `<p>The booking for <b>{{.EventName}}</b> is marked as completed. Thank you for using EventHire.</p>` + htmlLayoutEnd,
	},
	TemplatePaymentSucceeded: {
		subject: "Deposit received for {{.EventName}}",
		text:    "A deposit of {{.Amount}} for {{.EventName}} was received.\n",
		html:    htmlLayoutStart + `<p>A deposit of {{.Amount}} for <b>{{.EventName}}</b> was received.</p>` + htmlLayoutEnd,
	},
	TemplatePaymentFailed: {
		subject: "Deposit payment for {{.EventName}} failed",
		text:    "The deposit payment for {{.EventName}} failed{{if .Reason}}: {{.Reason}}{{end}}.\nTry again: {{.AppURL}}/requests/{{.RequestID}}\n",
		html: htmlLayoutStart + `<p>The deposit payment for <b>{{.EventName}}</b> failed{{if .Reason}}: {{.Reason}}{{end}}.</p>
<p><a href="{{.AppURL}}/requests/{{.RequestID}}">Try again</a></p>` + htmlLayoutEnd,
	},
	TemplateNewMessage: {
		subject: "New message from {{.SenderName}} about {{.EventName}}",
		text:    "{{.SenderName}} wrote about {{.EventName}}:\n\n{{.Preview}}\n\nReply: {{.AppURL}}/conversations/{{.ConversationID}}\n",
		html: htmlLayoutStart + `<p>{{.SenderName}} wrote about <b>{{.EventName}}</b>:</p>
<blockquote>{{.Preview}}</blockquote>
<p><a href="{{.AppURL}}/conversations/{{.ConversationID}}">Reply</a></p>` + htmlLayoutEnd,
	},
}

// FormatMoney renders minor units as "12.50 USD".
func FormatMoney(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, strings.ToUpper(currency))
}

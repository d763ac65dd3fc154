package email

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateManager_RendersDefaults(t *testing.T) {
	tm := NewTemplateManager()

	out, err := tm.Render(TemplateRequestDeclined, TemplateData{
		"ProfessionalName": "Ana",
		"EventName":        "Gala <2026>",
		"Reason":           "booked",
	})
	require.NoError(t, err)
	assert.Equal(t, "Your request for Gala <2026> was declined", out.Subject)
	assert.Contains(t, out.Text, "Reason: booked")
	assert.Contains(t, out.HTML, "Gala &lt;2026&gt;")
}

func TestTemplateManager_UnknownTemplate(t *testing.T) {
	_, err := NewTemplateManager().Render("nope", nil)
	assert.Error(t, err)
}

func TestTemplateManager_LoadTemplatesOverridesHTML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TemplateVerifyEmail+".html"), []byte(`<b>{{.Token}}</b>`), 0o600))

	tm := NewTemplateManager()
	require.NoError(t, tm.LoadTemplates(dir))

	out, err := tm.Render(TemplateVerifyEmail, TemplateData{"Token": "abc", "Name": "x", "AppURL": ""})
	require.NoError(t, err)
	assert.Equal(t, "<b>abc</b>", out.HTML)
	assert.Contains(t, out.Text, "token=abc")
}

func TestTemplateManager_LoadTemplatesRejectsUnknown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mystery.html"), []byte(`x`), 0o600))
	assert.Error(t, NewTemplateManager().LoadTemplates(dir))
}

func TestMailer_SendTemplate(t *testing.T) {
	provider := NewLogProvider()
	m := NewMailer(provider, nil, "https://eventhire.test/")

	err := m.SendTemplate(context.Background(), "org@example.com", TemplatePasswordReset, TemplateData{"Token": "t0k"})
	require.NoError(t, err)

	sent := provider.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"org@example.com"}, sent[0].To)
	assert.Equal(t, TemplatePasswordReset, sent[0].Template)
	assert.Contains(t, sent[0].TextBody, "https://eventhire.test/reset-password?token=t0k")
}

func TestMailer_RequiresRecipient(t *testing.T) {
	m := NewMailer(NewLogProvider(), nil, "")
	err := m.SendTemplate(context.Background(), " ", TemplateVerifyEmail, nil)
	assert.True(t, errors.Is(err, ErrNoRecipients))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "12.05 USD", FormatMoney(1205, "usd"))
	assert.Equal(t, "0.99 EUR", FormatMoney(99, "eur"))
	assert.Equal(t, "-1.00 USD", FormatMoney(-100, "usd"))
}

func TestNewSMTPProvider_Validates(t *testing.T) {
	_, err := NewSMTPProvider(SMTPConfig{Port: 25})
	assert.Error(t, err)
	_, err = NewSMTPProvider(SMTPConfig{Host: "localhost", Port: 70000})
	assert.Error(t, err)
	p, err := NewSMTPProvider(SMTPConfig{Host: "localhost", Port: 2525})
	require.NoError(t, err)
	assert.Equal(t, "smtp", p.Name())
}

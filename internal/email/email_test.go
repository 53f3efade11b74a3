package email

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Localized(t *testing.T) {
	r, err := NewRenderer(nil)
	require.NoError(t, err)

	subject, html, text, err := r.Render(TemplateCodePassword, "es", Vars{Code: "a1b2c3", TTL: "10m0s"})
	require.NoError(t, err)
	assert.Equal(t, "Tu código de verificación", subject)
	assert.Contains(t, html, "<strong>a1b2c3</strong>")
	assert.Contains(t, text, "a1b2c3")

	subject, _, _, err = r.Render(TemplateCodePassword, "fr", Vars{Code: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Your verification code", subject)
}

func TestRenderer_EscapesHTML(t *testing.T) {
	r, err := NewRenderer(nil)
	require.NoError(t, err)
	_, html, text, err := r.Render(TemplateAccountCreated, "en", Vars{Name: "<b>x</b>", Link: "https://x/reset"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<b>x</b>")
	assert.Contains(t, text, "<b>x</b>")
}

func TestRenderer_Unknown(t *testing.T) {
	r, err := NewRenderer(nil)
	require.NoError(t, err)
	_, _, _, err = r.Render("nope", "en", Vars{})
	assert.Error(t, err)
}

func TestMailer_Outbox(t *testing.T) {
	r, err := NewRenderer(nil)
	require.NoError(t, err)
	box := &Outbox{}
	m := &Mailer{Sender: box, Renderer: r}

	require.NoError(t, m.Send("a@b.co", TemplateResetPassword, "en", Vars{Link: "https://x/r?oobCode=1"}))
	last := box.Last()
	assert.Equal(t, "a@b.co", last.To)
	assert.Equal(t, "Reset your password", last.Subject)
	assert.Contains(t, last.Text, "oobCode=1")

	box.Err = errors.New("smtp down")
	assert.Error(t, m.Send("a@b.co", TemplateResetPassword, "en", Vars{}))
	assert.Len(t, box.Messages(), 1)
}

func TestSMTPSender_Message(t *testing.T) {
	s := NewSMTPSender("smtp.local", 587, "no-reply@x.co", "u", "p")
	m := s.message("a@b.co", "Hi", "<p>hi</p>", "hi")
	assert.Equal(t, []string{"a@b.co"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Hi"}, m.GetHeader("Subject"))

	s.TLSMode = "ssl"
	assert.True(t, s.dialer().SSL)
}

package mail

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func enabledSettings() MailgunSettings {
	return MailgunSettings{
		Enabled:  true,
		Domain:   "mg.example.com",
		APIKey:   "key-test",
		From:     "noreply@mg.example.com",
		FromName: "Product Compass",
	}
}

func stubResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestSendPostsFormToProvider(t *testing.T) {
	mailer, err := NewMailgunMailer(enabledSettings())
	require.NoError(t, err)

	var captured *http.Request
	var form string
	mailer.(*mailgunMailer).doFn = func(req *http.Request) (*http.Response, error) {
		captured = req
		raw, readErr := io.ReadAll(req.Body)
		require.NoError(t, readErr)
		form = string(raw)
		return stubResponse(http.StatusOK, `{"message":"Queued"}`), nil
	}

	err = mailer.Send(context.Background(), Message{
		To:       []string{"user@example.com", "user@example.com"},
		Subject:  "You're invited",
		HTMLBody: "<p>join us</p>",
		TextBody: "join us",
		ReplyTo:  "owner@example.com",
	})
	require.NoError(t, err)

	require.Equal(t, "https://api.mailgun.net/v3/mg.example.com/messages", captured.URL.String())
	user, pass, ok := captured.BasicAuth()
	require.True(t, ok)
	require.Equal(t, "api", user)
	require.Equal(t, "key-test", pass)

	require.Contains(t, form, "to=user%40example.com")
	require.NotContains(t, form, "to=user%40example.com&to=user%40example.com")
	require.Contains(t, form, "h%3AReply-To=owner%40example.com")
	require.Contains(t, form, "from=Product+Compass+%3Cnoreply%40mg.example.com%3E")
}

func TestSendDisabled(t *testing.T) {
	cfg := enabledSettings()
	cfg.Enabled = false

	mailer, err := NewMailgunMailer(cfg)
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{To: []string{"user@example.com"}, Subject: "hi"})
	require.ErrorIs(t, err, ErrMailDisabled)
}

func TestSendRejectsProviderFailure(t *testing.T) {
	mailer, err := NewMailgunMailer(enabledSettings())
	require.NoError(t, err)

	mailer.(*mailgunMailer).doFn = func(req *http.Request) (*http.Response, error) {
		return stubResponse(http.StatusUnauthorized, "Forbidden"), nil
	}

	err = mailer.Send(context.Background(), Message{To: []string{"user@example.com"}, Subject: "hi"})
	require.ErrorContains(t, err, "provider returned 401")
}

func TestSendValidatesRecipients(t *testing.T) {
	mailer, err := NewMailgunMailer(enabledSettings())
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{Subject: "hi"})
	require.ErrorContains(t, err, "at least one recipient")

	err = mailer.Send(context.Background(), Message{To: []string{"not an address"}, Subject: "hi"})
	require.ErrorContains(t, err, "invalid recipient")
}

func TestNewMailgunMailerValidatesConfig(t *testing.T) {
	cfg := enabledSettings()
	cfg.Domain = ""

	_, err := NewMailgunMailer(cfg)
	require.ErrorContains(t, err, "domain is required")
}

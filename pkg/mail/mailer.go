package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"
)

// ErrMailDisabled signals that outbound email is disabled via configuration.
var ErrMailDisabled = errors.New("mail: delivery disabled")

// DefaultBaseURL points at the Mailgun v3 API.
const DefaultBaseURL = "https://api.mailgun.net/v3"

// Message represents an outbound email.
type Message struct {
	From     string
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// Mailer defines behaviour for sending email messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// MailgunSettings capture the runtime configuration for the HTTP mail provider.
type MailgunSettings struct {
	Enabled  bool
	BaseURL  string
	Domain   string
	APIKey   string
	From     string
	FromName string
	Timeout  time.Duration
}

type httpDoFunc func(req *http.Request) (*http.Response, error)

type mailgunMailer struct {
	cfg  MailgunSettings
	doFn httpDoFunc
}

// NewMailgunMailer constructs a Mailer that posts messages to the Mailgun HTTP API.
func NewMailgunMailer(cfg MailgunSettings) (Mailer, error) {
	if err := validateMailgunConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: cfg.Timeout}
	return &mailgunMailer{cfg: cfg, doFn: client.Do}, nil
}

func (m *mailgunMailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Enabled {
		return ErrMailDisabled
	}

	recipients := uniqueAddresses(msg.To)
	if len(recipients) == 0 {
		return errors.New("mail: at least one recipient is required")
	}

	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = m.cfg.From
		if m.cfg.FromName != "" {
			from = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From)
		}
	}
	if from == "" {
		return errors.New("mail: sender address is required")
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return fmt.Errorf("mail: invalid from address: %w", err)
	}

	for _, rcpt := range recipients {
		if _, err := mail.ParseAddress(rcpt); err != nil {
			return fmt.Errorf("mail: invalid recipient address %q: %w", rcpt, err)
		}
	}

	form := url.Values{}
	form.Set("from", from)
	for _, rcpt := range recipients {
		form.Add("to", rcpt)
	}
	form.Set("subject", msg.Subject)
	if msg.HTMLBody != "" {
		form.Set("html", msg.HTMLBody)
	}
	if msg.TextBody != "" {
		form.Set("text", msg.TextBody)
	}
	if replyTo := strings.TrimSpace(msg.ReplyTo); replyTo != "" {
		form.Set("h:Reply-To", replyTo)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", strings.TrimRight(m.cfg.BaseURL, "/"), m.cfg.Domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("mail: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", m.cfg.APIKey)

	resp, err := m.doFn(req)
	if err != nil {
		return fmt.Errorf("mail: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail: provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}

func validateMailgunConfig(cfg MailgunSettings) error {
	if !cfg.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Domain) == "" {
		return errors.New("mail: domain is required when enabled")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return errors.New("mail: api key is required when enabled")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return errors.New("mail: from address is required when enabled")
	}
	return nil
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	var result []string
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, exists := seen[addr]; exists {
			continue
		}
		seen[addr] = struct{}{}
		result = append(result, addr)
	}
	return result
}

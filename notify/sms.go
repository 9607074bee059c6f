package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	africasTalkingLiveURL    = "https://api.africastalking.com/version1/messaging"
	africasTalkingSandboxURL = "https://api.sandbox.africastalking.com/version1/messaging"
)

// AfricasTalkingConfig configures the SMS gateway client.
type AfricasTalkingConfig struct {
	Username string
	APIKey   string
	// Sandbox routes messages through the test gateway; forced on when the
	// username is "sandbox".
	Sandbox bool
	// SenderID is the short code or phone number shown as the sender.
	// Ignored in sandbox mode.
	SenderID string

	HTTPClient *http.Client
}

// AfricasTalkingSender sends SMS through the Africa's Talking REST API.
type AfricasTalkingSender struct {
	cfg    AfricasTalkingConfig
	apiURL string
	client *http.Client
	log    logrus.FieldLogger
}

// NewAfricasTalkingSender builds a gateway client. Credentials are
// required; a nil sender is the way to disable SMS, not empty credentials.
func NewAfricasTalkingSender(cfg AfricasTalkingConfig, log logrus.FieldLogger) (*AfricasTalkingSender, error) {
	if cfg.Username == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("notify: africastalking username and api key are required")
	}
	if strings.EqualFold(cfg.Username, "sandbox") {
		cfg.Sandbox = true
	}
	apiURL := africasTalkingLiveURL
	if cfg.Sandbox {
		apiURL = africasTalkingSandboxURL
		cfg.Username = "sandbox"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AfricasTalkingSender{cfg: cfg, apiURL: apiURL, client: client, log: log}, nil
}

// smsResponse mirrors the gateway's response envelope.
type smsResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			Number     string `json:"number"`
			Status     string `json:"status"`
			StatusCode int    `json:"statusCode"`
			MessageID  string `json:"messageId"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

// Send delivers one message. A gateway-level rejection of the recipient is
// an error even when the HTTP exchange succeeds.
func (s *AfricasTalkingSender) Send(ctx context.Context, to, message string) error {
	form := url.Values{
		"username": {s.cfg.Username},
		"to":       {to},
		"message":  {message},
	}
	if s.cfg.SenderID != "" && !s.cfg.Sandbox {
		form.Set("from", s.cfg.SenderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: sms gateway request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: sms gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed smsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("notify: decode sms gateway response: %w", err)
	}
	recipients := parsed.SMSMessageData.Recipients
	if len(recipients) == 0 {
		return fmt.Errorf("notify: sms gateway accepted no recipients: %s", parsed.SMSMessageData.Message)
	}
	if recipients[0].Status != "Success" {
		return fmt.Errorf("notify: sms to %s rejected: %s", to, recipients[0].Status)
	}

	s.log.WithFields(logrus.Fields{
		"to":         to,
		"message_id": recipients[0].MessageID,
		"sandbox":    s.cfg.Sandbox,
	}).Info("sms sent")
	return nil
}

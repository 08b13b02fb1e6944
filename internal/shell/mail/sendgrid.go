package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/httpclient"
)

// DefaultSendGridBaseURL is the SendGrid API origin.
const DefaultSendGridBaseURL = "https://api.sendgrid.com"

// SendGridConfig holds configuration for the SendGrid client.
type SendGridConfig struct {
	APIKey  string
	From    string
	BaseURL string
	HTTP    httpclient.Options
}

// SendGridClient implements Mailer with the SendGrid v3 mail/send API.
type SendGridClient struct {
	apiKey  string
	from    string
	baseURL string
	http    *retryablehttp.Client
	logger  *slog.Logger
}

// NewSendGridClient creates a new SendGrid client.
func NewSendGridClient(cfg SendGridConfig, logger *slog.Logger) *SendGridClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSendGridBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SendGridClient{
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpclient.New(cfg.HTTP, logger),
		logger:  logger,
	}
}

// sendGridRequest is the v3 mail/send payload.
type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
	Attachments      []sendGridAttachment      `json:"attachments,omitempty"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridAttachment struct {
	Content     string `json:"content"`
	Type        string `json:"type,omitempty"`
	Filename    string `json:"filename"`
	Disposition string `json:"disposition"`
}

// Send delivers the message. SendGrid answers 202 Accepted on success.
func (c *SendGridClient) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if msg.From == "" {
		msg.From = c.from
	}

	body, err := json.Marshal(buildSendGridRequest(msg))
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: sendgrid returned %d: %s", ErrSendFailed, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	c.logger.InfoContext(ctx, "email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Provider returns "sendgrid".
func (c *SendGridClient) Provider() string {
	return ProviderSendGrid
}

func buildSendGridRequest(msg Message) sendGridRequest {
	req := sendGridRequest{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: msg.To}}}},
		From:             sendGridAddress{Email: msg.From},
		Subject:          msg.Subject,
	}
	// SendGrid requires text/plain before text/html.
	if msg.Text != "" {
		req.Content = append(req.Content, sendGridContent{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		req.Content = append(req.Content, sendGridContent{Type: "text/html", Value: msg.HTML})
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, sendGridAttachment{
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			Type:        a.ContentType,
			Filename:    a.Filename,
			Disposition: "attachment",
		})
	}
	return req
}

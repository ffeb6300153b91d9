package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/primechances/primechances-api/apperrors"
	"github.com/primechances/primechances-api/config"
	"github.com/primechances/primechances-api/utils"
)

// Email is one outbound transactional message.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// SendResult mirrors the email provider's response shape.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// MailerService posts to a Resend-style transactional email API. Delivery
// is best effort everywhere it is used; callers log failures and move on.
type MailerService struct {
	apiURL  string
	apiKey  string
	from    string
	replyTo string
	enabled bool
	client  *http.Client
}

func NewMailerService(cfg *config.Config) *MailerService {
	if !cfg.MailEnabled {
		utils.InfoLogger.Println("Mailer disabled: MAIL_API_URL, MAIL_API_KEY or MAIL_FROM not set")
	}
	return &MailerService{
		apiURL:  cfg.MailAPIURL,
		apiKey:  cfg.MailAPIKey,
		from:    cfg.MailFrom,
		replyTo: cfg.MailReplyTo,
		enabled: cfg.MailEnabled,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send posts one email. A disabled mailer reports success without sending
// so callers need no special casing in development.
func (ms *MailerService) Send(ctx context.Context, email Email) (*SendResult, error) {
	if !ms.enabled {
		return &SendResult{Success: true, MessageID: "disabled-" + uuid.NewString()}, nil
	}

	payload := map[string]interface{}{
		"from":    ms.from,
		"to":      []string{email.To},
		"subject": email.Subject,
		"html":    email.HTML,
	}
	if ms.replyTo != "" {
		payload["reply_to"] = ms.replyTo
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ms.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+ms.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ms.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("email send timed out")
		}
		var urlErr interface{ Timeout() bool }
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, apperrors.NewTimeoutError("email send timed out")
		}
		return nil, apperrors.NewExternalServiceError("email", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &SendResult{Success: false, Error: resp.Status},
			apperrors.NewExternalServiceError("email", fmt.Errorf("unexpected status %s", resp.Status))
	}

	var apiResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil || apiResp.ID == "" {
		apiResp.ID = uuid.NewString()
	}

	utils.InfoLogger.Printf("Email sent to %s: %s (message %s)", email.To, email.Subject, apiResp.ID)
	return &SendResult{Success: true, MessageID: apiResp.ID}, nil
}

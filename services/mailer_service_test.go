package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/primechances/primechances-api/apperrors"
	"github.com/primechances/primechances-api/config"
	"github.com/primechances/primechances-api/utils"
	"github.com/stretchr/testify/assert"
)

func mailerFor(url string) *MailerService {
	utils.InitLogger()
	return NewMailerService(&config.Config{
		MailAPIURL:  url,
		MailAPIKey:  "test-key",
		MailFrom:    "PrimeChances <noreply@primechances.test>",
		MailReplyTo: "support@primechances.test",
		MailEnabled: true,
	})
}

func TestSendSuccess(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer server.Close()

	mailer := mailerFor(server.URL)
	result, err := mailer.Send(context.Background(), Email{
		To:      "user@example.com",
		Subject: "Submission approved",
		HTML:    "<p>Hello</p>",
	})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "msg_123", result.MessageID)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "Submission approved", gotPayload["subject"])
	assert.Equal(t, "support@primechances.test", gotPayload["reply_to"])
	if to, ok := gotPayload["to"].([]interface{}); assert.True(t, ok) {
		assert.Equal(t, "user@example.com", to[0])
	}
}

func TestSendProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	mailer := mailerFor(server.URL)
	result, err := mailer.Send(context.Background(), Email{To: "user@example.com", Subject: "s", HTML: "h"})

	assert.Equal(t, apperrors.CodeExternalService, apperrors.CodeOf(err))
	if assert.NotNil(t, result) {
		assert.False(t, result.Success)
	}
}

func TestSendTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	mailer := mailerFor(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := mailer.Send(ctx, Email{To: "user@example.com", Subject: "s", HTML: "h"})
	assert.Equal(t, apperrors.CodeTimeout, apperrors.CodeOf(err))
}

func TestSendDisabledReportsSuccess(t *testing.T) {
	utils.InitLogger()
	mailer := NewMailerService(&config.Config{MailEnabled: false})

	result, err := mailer.Send(context.Background(), Email{To: "user@example.com", Subject: "s", HTML: "h"})
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, strings.HasPrefix(result.MessageID, "disabled-"))
}

func TestSendMissingResponseIDGetsFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	mailer := mailerFor(server.URL)
	result, err := mailer.Send(context.Background(), Email{To: "user@example.com", Subject: "s", HTML: "h"})
	assert.NoError(t, err)
	assert.NotEmpty(t, result.MessageID)
}

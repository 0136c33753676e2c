// Package message holds outbound messaging provider clients.
package message

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/cybernet-io/leadgrid/internal/domain"
	"github.com/cybernet-io/leadgrid/internal/metrics"
)

// SMSConfig holds the SMS provider settings.
type SMSConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	FromNumber string
	Logger     *zap.Logger
}

// SMSClient sends SMS via a Twilio-compatible messaging API.
type SMSClient struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	client     *retryablehttp.Client
	logger     *zap.Logger
}

// NewSMSClient creates an SMS provider client.
func NewSMSClient(cfg SMSConfig) *SMSClient {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	retryClient.Logger = nil

	return &SMSClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		client:     retryClient,
		logger:     cfg.Logger,
	}
}

// Channel implements the provider contract.
func (c *SMSClient) Channel() domain.Channel { return domain.ChannelSMS }

// Sender returns the configured from number.
func (c *SMSClient) Sender() string { return c.from }

type smsResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send delivers one SMS and returns the provider's message id.
func (c *SMSClient) Send(ctx context.Context, recipient, body string) (string, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)

	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", recipient)
	form.Set("Body", body)

	req, err := retryablehttp.NewRequestWithContext(
		ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues(string(domain.ChannelSMS)).
		Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("sms request: %w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read sms response: %w: %v", domain.ErrProviderFailure, err)
	}

	var parsed smsResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parse sms response: %w: %v", domain.ErrProviderFailure, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("sms delivery rejected",
			zap.Int("status", resp.StatusCode),
			zap.Int("code", parsed.Code),
			zap.String("message", parsed.Message))
		return "", &domain.ProviderError{Code: parsed.Code, Message: parsed.Message}
	}

	c.logger.Debug("sms accepted",
		zap.String("sid", parsed.SID),
		zap.String("status", parsed.Status))
	return parsed.SID, nil
}

package message

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/cybernet-io/leadgrid/internal/domain"
	"github.com/cybernet-io/leadgrid/internal/metrics"
)

// EmailConfig holds the email provider settings.
type EmailConfig struct {
	BaseURL     string
	APIKey      string
	FromAddress string
	Logger      *zap.Logger
}

// EmailClient sends email via a REST messaging API.
type EmailClient struct {
	baseURL string
	apiKey  string
	from    string
	client  *retryablehttp.Client
	logger  *zap.Logger
}

// NewEmailClient creates an email provider client.
func NewEmailClient(cfg EmailConfig) *EmailClient {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	retryClient.Logger = nil

	return &EmailClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		from:    cfg.FromAddress,
		client:  retryClient,
		logger:  cfg.Logger,
	}
}

// Channel implements the provider contract.
func (c *EmailClient) Channel() domain.Channel { return domain.ChannelEmail }

// Sender returns the configured from address.
func (c *EmailClient) Sender() string { return c.from }

type emailRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

type emailResponse struct {
	ID      string `json:"id"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send delivers one email and returns the provider's message id.
func (c *EmailClient) Send(ctx context.Context, recipient, body string) (string, error) {
	payload, err := json.Marshal(emailRequest{From: c.from, To: recipient, Body: body})
	if err != nil {
		return "", fmt.Errorf("encode email request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues(string(domain.ChannelEmail)).
		Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("email request: %w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read email response: %w: %v", domain.ErrProviderFailure, err)
	}

	var parsed emailResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parse email response: %w: %v", domain.ErrProviderFailure, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("email delivery rejected",
			zap.Int("status", resp.StatusCode),
			zap.Int("code", parsed.Code),
			zap.String("message", parsed.Message))
		return "", &domain.ProviderError{Code: parsed.Code, Message: parsed.Message}
	}

	c.logger.Debug("email accepted", zap.String("id", parsed.ID))
	return parsed.ID, nil
}

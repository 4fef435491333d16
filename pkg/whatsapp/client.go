package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"autoquote/pkg/client"
	"autoquote/pkg/logger"
	"autoquote/pkg/sanitizer"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v22.0"
)

type Config struct {
	BaseURL       string
	APIVersion    string
	PhoneNumberID string
	Token         string
	Timeout       time.Duration
	// RequestsPerSecond throttles outgoing calls; <= 0 disables throttling.
	RequestsPerSecond float64
}

// Client sends template messages through the WhatsApp Cloud API.
type Client struct {
	http    *client.HttpClient
	path    string
	limiter *rate.Limiter
	log     *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.Token == "" || cfg.PhoneNumberID == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}

	hc := client.NewHttpClient(cfg.BaseURL, cfg.Timeout)
	hc.Headers["Authorization"] = "Bearer " + cfg.Token

	c := &Client{
		http: hc,
		path: fmt.Sprintf("/%s/%s/messages", strings.Trim(cfg.APIVersion, "/"), cfg.PhoneNumberID),
		log:  log,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c, nil
}

// SendTemplate sends tpl to the phone number to. A response that is not 2xx
// is returned as *APIError.
func (c *Client) SendTemplate(ctx context.Context, to string, tpl Template) (*SendResponse, error) {
	to = strings.TrimPrefix(strings.TrimSpace(to), "+")
	if to == "" {
		return nil, ErrMissingRecipient
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("whatsapp: wait for rate limiter: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.http.POST(ctx, c.path, TemplateMessage{
		MessagingProduct: MessagingProduct,
		To:               to,
		Type:             TypeTemplate,
		Template:         tpl,
	})
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send template %s: %w", tpl.Name, err)
	}

	c.log.Debug("WhatsApp API responded",
		"template", tpl.Name,
		"to", sanitizer.MaskPhone("+"+to),
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, parseAPIError(resp)
	}

	var out SendResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return &out, nil
}

func parseAPIError(resp *client.Response) *APIError {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err == nil && envelope.Error != nil {
		envelope.Error.StatusCode = resp.StatusCode
		envelope.Error.Body = string(resp.Body)
		return envelope.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(resp.Body))}
}

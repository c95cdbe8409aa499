// Package notify posts operational notices to a Discord webhook.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

const (
	// Colors for Discord embeds
	colorRed   = 15158332 // 0xE74C3C
	colorGreen = 5763719  // 0x57F287

	defaultWebhookTimeout = 10 * time.Second

	// Max attempts when Discord rate limits us
	maxRetries = 3
)

// WebhookPayload represents a Discord webhook message
type WebhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed represents a Discord embed
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedField represents a field in a Discord embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter represents the footer of a Discord embed
type EmbedFooter struct {
	Text string `json:"text"`
}

// BackfillReport is what a finished backfill run reports.
type BackfillReport struct {
	Player   string
	Analyzed int64
	Skipped  int64
	Failed   int64
	Elapsed  time.Duration
	Stopped  bool
}

// NewBackfillPayload creates a payload summarizing a backfill run.
func NewBackfillPayload(r BackfillReport) WebhookPayload {
	title := "✅ Backfill Finished"
	color := colorGreen
	if r.Stopped || r.Failed > 0 {
		title = "⚠️ Backfill Incomplete"
		color = colorRed
	}

	return WebhookPayload{
		Embeds: []Embed{
			{
				Title:       title,
				Description: r.Player,
				Color:       color,
				Fields: []EmbedField{
					{Name: "Analyzed", Value: formatNumber(r.Analyzed), Inline: true},
					{Name: "Skipped", Value: formatNumber(r.Skipped), Inline: true},
					{Name: "Failed", Value: formatNumber(r.Failed), Inline: true},
					{Name: "Runtime", Value: formatDuration(r.Elapsed), Inline: true},
				},
			},
		},
	}
}

// NewKeyRejectedPayload creates a payload for a rejected Riot API key.
func NewKeyRejectedPayload(apiKey string) WebhookPayload {
	return WebhookPayload{
		Content: "@here Riot API key rejected",
		Embeds: []Embed{
			{
				Title: "🔑 API Key Rejected",
				Color: colorRed,
				Fields: []EmbedField{
					{Name: "Key", Value: MaskAPIKey(apiKey), Inline: true},
				},
				Footer: &EmbedFooter{
					Text: "Only cached matches are served until RIOT_API_KEY is renewed",
				},
			},
		},
	}
}

// WebhookClient sends notifications to Discord webhooks
type WebhookClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewWebhookClient creates a new WebhookClient
func NewWebhookClient(webhookURL string) *WebhookClient {
	return &WebhookClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: defaultWebhookTimeout,
		},
	}
}

// SendBackfillReport posts a backfill summary.
func (c *WebhookClient) SendBackfillReport(ctx context.Context, r BackfillReport) error {
	return c.Send(ctx, NewBackfillPayload(r))
}

// SendKeyRejected posts a key rejection notice.
func (c *WebhookClient) SendKeyRejected(ctx context.Context, apiKey string) error {
	return c.Send(ctx, NewKeyRejectedPayload(apiKey))
}

// Send posts payload, waiting out Discord rate limits up to maxRetries times.
func (c *WebhookClient) Send(ctx context.Context, payload WebhookPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		resp.Body.Close()

		// Discord returns 204 No Content
		if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
			return nil
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
		}

		waitDuration := time.Second
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			waitDuration = time.Duration(seconds) * time.Second
		}

		timer := time.NewTimer(waitDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("webhook request failed after %d retries", maxRetries)
}

// formatNumber formats a number with commas (e.g., 47832 -> "47,832")
func formatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 1000 {
		return s
	}

	var result bytes.Buffer
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(c)
	}
	return result.String()
}

// formatDuration formats a duration as "Xh Ym Zs"
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// MaskAPIKey masks an API key for display (e.g., "RGAPI-xxxx-xxxx" -> "RGAPI...xxxx")
func MaskAPIKey(key string) string {
	if len(key) <= 10 {
		return "****"
	}
	return key[:5] + "..." + key[len(key)-4:]
}

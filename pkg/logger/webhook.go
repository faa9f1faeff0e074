package logger

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
)

const webhookFooter = "🛡️ ChannelGuard | PancyStudio"

// webhookEmbed is the subset of a Discord embed used for log entries
type webhookEmbed struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Color       int               `json:"color"`
	Timestamp   string            `json:"timestamp"`
	Footer      map[string]string `json:"footer"`
}

type webhookPayload struct {
	Embeds []webhookEmbed `json:"embeds"`
}

// webhookSender posts log entries to Discord webhooks. Rate limited (429)
// and 5xx answers are retried a couple of times.
type webhookSender struct {
	client *retryablehttp.Client
}

func newWebhookSender() *webhookSender {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = 5 * time.Second
	// The sender is part of the logger; it must not log itself
	client.Logger = nil
	return &webhookSender{client: client}
}

// buildWebhookPayload renders a log entry as a Discord webhook body
func buildWebhookPayload(level LogLevel, message, prefix string, at time.Time) ([]byte, error) {
	return json.Marshal(webhookPayload{
		Embeds: []webhookEmbed{{
			Title:       fmt.Sprintf("[%s] %s", level.String(), prefix),
			Description: fmt.Sprintf("```%s```", message),
			Color:       level.DiscordColor(),
			Timestamp:   at.Format(time.RFC3339),
			Footer:      map[string]string{"text": webhookFooter},
		}},
	})
}

// send delivers one entry; failures are dropped so logging never recurses
func (w *webhookSender) send(url string, level LogLevel, message, prefix string) {
	body, err := buildWebhookPayload(level, message, prefix, time.Now())
	if err != nil {
		return
	}

	req, err := retryablehttp.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

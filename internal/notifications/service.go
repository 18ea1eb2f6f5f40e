package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"relish/internal/config"
)

const userAgent = "Relish/0.1.0"

// Event identifies a pipeline milestone worth announcing.
type Event string

const (
	EventBatchCompleted  Event = "batch_completed"
	EventChangesApplied  Event = "changes_applied"
	EventChangesRejected Event = "changes_rejected"
	EventError           Event = "error"
)

// Payload carries the event fields used to format the outgoing message.
// Values are preformatted strings; counts arrive already rendered.
type Payload map[string]string

// Service publishes pipeline events to the configured notification channel.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy URL is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	endpoint := strings.TrimSpace(cfg.Notifications.NtfyURL)
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: endpoint,
		token:    strings.TrimSpace(cfg.Notifications.NtfyToken),
		enabled: map[Event]bool{
			EventBatchCompleted:  cfg.Notifications.Ingest,
			EventChangesApplied:  cfg.Notifications.Changes,
			EventChangesRejected: cfg.Notifications.Changes,
			EventError:           cfg.Notifications.Errors,
		},
		client: &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	token    string
	enabled  map[Event]bool
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled[event] {
		return nil
	}
	data, ok := formatMessage(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func formatMessage(event Event, payload Payload) (message, bool) {
	switch event {
	case EventBatchCompleted:
		return batchCompletedMessage(payload), true
	case EventChangesApplied:
		return changesAppliedMessage(payload), true
	case EventChangesRejected:
		return changesRejectedMessage(payload), true
	case EventError:
		return errorMessage(payload), true
	}
	return message{}, false
}

func batchCompletedMessage(payload Payload) message {
	name := strings.TrimSpace(payload["batch"])
	if name == "" {
		name = "Batch"
	}
	resolved := countField(payload, "resolved")
	duplicates := countField(payload, "duplicates")
	failures := countField(payload, "errors")

	var title, body string
	if failures == "0" {
		title = "Relish - Batch Complete"
		body = fmt.Sprintf("✅ %s complete: %s resolved, %s duplicates", name, resolved, duplicates)
	} else {
		title = "Relish - Batch Complete (with errors)"
		body = fmt.Sprintf("%s complete: %s resolved, %s duplicates, %s errors", name, resolved, duplicates, failures)
	}

	return message{
		title: title,
		body:  body,
		tags:  []string{"relish", "batch", "completed"},
	}
}

func changesAppliedMessage(payload Payload) message {
	category := strings.TrimSpace(payload["category"])
	if category == "" {
		category = "catalog"
	}
	applied := countField(payload, "applied")
	skipped := countField(payload, "skipped")
	failed := countField(payload, "failed")

	var title, body string
	if failed == "0" {
		title = "Relish - Changes Applied"
		body = fmt.Sprintf("Applied %s %s changes (%s skipped)", applied, category, skipped)
	} else {
		title = "Relish - Changes Applied (with errors)"
		body = fmt.Sprintf("Applied %s %s changes (%s skipped, %s failed)", applied, category, skipped, failed)
	}

	return message{
		title: title,
		body:  body,
		tags:  []string{"relish", "changes", "applied"},
	}
}

func changesRejectedMessage(payload Payload) message {
	category := strings.TrimSpace(payload["category"])
	if category == "" {
		category = "catalog"
	}
	rejected := countField(payload, "rejected")

	return message{
		title: "Relish - Changes Rejected",
		body:  fmt.Sprintf("Rejected %s proposed %s changes", rejected, category),
		tags:  []string{"relish", "changes", "rejected"},
	}
}

func errorMessage(payload Payload) message {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel := strings.TrimSpace(payload["context"]); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if reason := strings.TrimSpace(payload["error"]); reason != "" {
		builder.WriteString(reason)
	} else {
		builder.WriteString("unknown")
	}

	return message{
		title:    "Relish - Error",
		body:     builder.String(),
		tags:     []string{"relish", "error", "alert"},
		priority: "high",
	}
}

func countField(payload Payload, key string) string {
	if value := strings.TrimSpace(payload[key]); value != "" {
		return value
	}
	return "0"
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

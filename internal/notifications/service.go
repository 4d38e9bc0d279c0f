package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cardwatch/internal/config"
)

const userAgent = "Cardwatch-Go/0.1.0"

// Service defines the notification surface exposed to the orchestrator.
type Service interface {
	NotifyInitialScan(ctx context.Context, dailyID string, taskCount int) error
	NotifyScanComplete(ctx context.Context, dailyID string, taskCount int) error
	NotifyReorderApplied(ctx context.Context, dailyID string, changed int) error
	NotifyNameDrift(ctx context.Context, dailyID string, applied int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:   topic,
		client:     client,
		sendScans:  cfg.Notifications.Scans,
		sendErrors: cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	sendScans  bool
	sendErrors bool
}

func (n *ntfyService) NotifyInitialScan(ctx context.Context, dailyID string, taskCount int) error {
	if !n.sendScans {
		return nil
	}
	data := payload{
		title:   "Cardwatch - Sheet Scanned",
		message: fmt.Sprintf("First scan of %s picked up %d tasks", dailyID, taskCount),
		tags:    []string{"cardwatch", "scan", "initial"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyScanComplete(ctx context.Context, dailyID string, taskCount int) error {
	if !n.sendScans {
		return nil
	}
	data := payload{
		title:   "Cardwatch - Scan Complete",
		message: fmt.Sprintf("Reconciled %d tasks for %s", taskCount, dailyID),
		tags:    []string{"cardwatch", "scan", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReorderApplied(ctx context.Context, dailyID string, changed int) error {
	if !n.sendScans {
		return nil
	}
	data := payload{
		title:   "Cardwatch - Statuses Updated",
		message: fmt.Sprintf("Fast update applied %d status changes for %s", changed, dailyID),
		tags:    []string{"cardwatch", "turbo", "applied"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyNameDrift(ctx context.Context, dailyID string, applied int) error {
	if !n.sendScans {
		return nil
	}
	data := payload{
		title:   "Cardwatch - Names Updated",
		message: fmt.Sprintf("Applied %d task name corrections for %s", applied, dailyID),
		tags:    []string{"cardwatch", "drift", "applied"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.sendErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Cardwatch - Error",
		message:  builder.String(),
		tags:     []string{"cardwatch", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Cardwatch - Test",
		message:  "Notification system test",
		tags:     []string{"cardwatch", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
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

func (noopService) NotifyInitialScan(context.Context, string, int) error    { return nil }
func (noopService) NotifyScanComplete(context.Context, string, int) error   { return nil }
func (noopService) NotifyReorderApplied(context.Context, string, int) error { return nil }
func (noopService) NotifyNameDrift(context.Context, string, int) error      { return nil }
func (noopService) NotifyError(context.Context, error, string) error        { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }

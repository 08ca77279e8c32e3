package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lathe/internal/config"
)

const userAgent = "Lathe/0.1.0"

// Service defines the notification surface exposed to the pipeline. All
// notifications are best-effort: the pipeline logs send failures and keeps
// going.
type Service interface {
	NotifyRunStarted(ctx context.Context, version string, dryRun bool) error
	NotifyReleasePublished(ctx context.Context, version, releaseURL string, assets int) error
	NotifyReleaseFailed(ctx context.Context, version string, err error) error
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

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewNtfyService constructs an ntfy-backed service directly (for tests).
func NewNtfyService(endpoint string, client *http.Client) Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &ntfyService{endpoint: strings.TrimSpace(endpoint), client: client}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, version string, dryRun bool) error {
	message := fmt.Sprintf("Release pipeline started for v%s", version)
	if dryRun {
		message += " (dry run)"
	}
	data := payload{
		title:   "Lathe - Run Started",
		message: message,
		tags:    []string{"lathe", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReleasePublished(ctx context.Context, version, releaseURL string, assets int) error {
	message := fmt.Sprintf("Release v%s published with %d assets", version, assets)
	if releaseURL = strings.TrimSpace(releaseURL); releaseURL != "" {
		message = fmt.Sprintf("%s\n%s", message, releaseURL)
	}
	data := payload{
		title:    "Lathe - Release Published",
		message:  message,
		tags:     []string{"lathe", "release", "published"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReleaseFailed(ctx context.Context, version string, err error) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Release v%s failed", version)
	if err != nil {
		builder.WriteString(": ")
		builder.WriteString(strings.TrimSpace(err.Error()))
	}
	data := payload{
		title:    "Lathe - Release Failed",
		message:  builder.String(),
		tags:     []string{"lathe", "release", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Lathe - Test",
		message:  "Notification system test",
		tags:     []string{"lathe", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil || n.endpoint == "" {
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

func (noopService) NotifyRunStarted(context.Context, string, bool) error              { return nil }
func (noopService) NotifyReleasePublished(context.Context, string, string, int) error { return nil }
func (noopService) NotifyReleaseFailed(context.Context, string, error) error          { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }

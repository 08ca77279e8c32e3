package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"lathe/internal/config"
	"lathe/internal/logging"
	"lathe/internal/services"
)

// HTTPDoer describes the HTTP client used by the release publisher.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ReleaseData is the remote release record to create.
type ReleaseData struct {
	Version    string
	Tag        string
	Title      string
	Body       string
	Draft      bool
	Prerelease bool
}

// ReleaseAsset describes a local file destined for upload. Instances are
// only built from successful build results or persisted documentation.
type ReleaseAsset struct {
	Name        string
	Path        string
	ContentType string
	Size        int64
	Checksum    string
}

// ReleaseRef identifies a created release on the host.
type ReleaseRef struct {
	ID        int64
	Tag       string
	UploadURL string
	HTMLURL   string
}

// UploadReceipt confirms a completed asset upload.
type UploadReceipt struct {
	AssetName   string
	DownloadURL string
	Size        int64
}

// ValidationReport summarizes the pre-flight integrity check over local
// asset files.
type ValidationReport struct {
	Valid              bool
	Missing            []string
	ChecksumMismatches []string
	SizeMismatches     []string
}

// Client publishes releases to an HTTP release host using a bearer
// credential. It performs no retries itself; transport failures are
// classified so the caller can decide.
type Client struct {
	cfg    *config.Config
	logger *slog.Logger
	client HTTPDoer

	baseURL string
	token   string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client (primarily for tests).
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// New constructs a publisher. A missing credential is a hard construction
// failure, not a per-call error.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	token := cfg.PublishToken()
	if token == "" {
		return nil, services.Wrap(services.ErrAuth, "publish", "credentials",
			fmt.Sprintf("no token configured and %s is unset", cfg.Publish.TokenEnv), nil)
	}

	c := &Client{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "publish"),
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.Publish.BaseURL), "/"),
		token:   token,
	}
	c.client = &http.Client{Timeout: c.requestTimeout()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) requestTimeout() time.Duration {
	if c.cfg.Publish.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.cfg.Publish.RequestTimeout) * time.Second
}

func (c *Client) repoURL(parts ...string) string {
	segments := append([]string{
		c.baseURL, "repos", c.cfg.Project.RepoOwner, c.cfg.Project.RepoName,
	}, parts...)
	return strings.Join(segments, "/")
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
}

// do executes a request and classifies transport failures: deadline
// expiries map to the timeout sentinel, everything else to the network
// sentinel. Status-code handling stays with the caller.
func (c *Client) do(ctx context.Context, req *http.Request, op string) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		marker := services.ErrNetwork
		var netErr net.Error
		switch {
		case errors.Is(err, context.DeadlineExceeded), ctx.Err() == context.DeadlineExceeded:
			marker = services.ErrTimeout
		case errors.As(err, &netErr) && netErr.Timeout():
			marker = services.ErrTimeout
		}
		return nil, services.Wrap(marker, "publish", op, "transport failure", err)
	}
	return resp, nil
}

func classifyStatus(status int, op string, body string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, "publish", op,
			fmt.Sprintf("host rejected credential (%d)", status), nil)
	case status == http.StatusUnprocessableEntity:
		return services.Wrap(services.ErrDuplicateRelease, "publish", op,
			fmt.Sprintf("host rejected request (422): %s", strings.TrimSpace(body)), nil)
	default:
		return services.Wrap(services.ErrNetwork, "publish", op,
			fmt.Sprintf("unexpected status %d: %s", status, strings.TrimSpace(body)), nil)
	}
}

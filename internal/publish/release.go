package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"lathe/internal/logging"
	"lathe/internal/services"
)

type releasePayload struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Body       string `json:"body"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

type releaseResponse struct {
	ID        int64  `json:"id"`
	TagName   string `json:"tag_name"`
	Name      string `json:"name"`
	UploadURL string `json:"upload_url"`
	HTMLURL   string `json:"html_url"`
	Draft     bool   `json:"draft"`
	CreatedAt string `json:"created_at"`
}

// Release is a summary entry returned by List and Latest.
type Release struct {
	ID        int64
	Tag       string
	Name      string
	HTMLURL   string
	Draft     bool
	CreatedAt string
}

// Create registers a new release for data.Tag. The tag is checked against
// the host first so a collision fails before anything is created.
func (c *Client) Create(ctx context.Context, data ReleaseData) (*ReleaseRef, error) {
	exists, err := c.tagExists(ctx, data.Tag)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, services.Wrap(services.ErrDuplicateRelease, "publish", "create",
			fmt.Sprintf("tag %s already has a release", data.Tag), nil)
	}

	payload, err := json.Marshal(releasePayload{
		TagName:    data.Tag,
		Name:       data.Title,
		Body:       data.Body,
		Draft:      data.Draft,
		Prerelease: data.Prerelease,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "publish", "create", "encode payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.repoURL("releases"), bytes.NewReader(payload))
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "publish", "create", "build request", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, req, "create")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusCreated {
		return nil, classifyStatus(resp.StatusCode, "create", string(body))
	}

	var created releaseResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, services.Wrap(services.ErrNetwork, "publish", "create", "decode response", err)
	}

	c.logger.Info("release created",
		logging.String("tag", created.TagName),
		logging.Int64("release_id", created.ID),
		logging.String("url", created.HTMLURL),
	)
	return &ReleaseRef{
		ID:        created.ID,
		Tag:       created.TagName,
		UploadURL: created.UploadURL,
		HTMLURL:   created.HTMLURL,
	}, nil
}

// tagExists asks the host whether tag already carries a release. 404 means
// the tag is free.
func (c *Client) tagExists(ctx context.Context, tag string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.repoURL("releases", "tags", tag), nil)
	if err != nil {
		return false, services.Wrap(services.ErrNetwork, "publish", "tag check", "build request", err)
	}
	c.authorize(req)

	resp, err := c.do(ctx, req, "tag check")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, classifyStatus(resp.StatusCode, "tag check", "")
	}
}

// Latest returns the newest release, or nil when the repository has none.
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.repoURL("releases", "latest"), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "publish", "latest", "build request", err)
	}
	c.authorize(req)

	resp, err := c.do(ctx, req, "latest")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, classifyStatus(resp.StatusCode, "latest", string(body))
	}

	var latest releaseResponse
	if err := json.Unmarshal(body, &latest); err != nil {
		return nil, services.Wrap(services.ErrNetwork, "publish", "latest", "decode response", err)
	}
	return &Release{
		ID:        latest.ID,
		Tag:       latest.TagName,
		Name:      latest.Name,
		HTMLURL:   latest.HTMLURL,
		Draft:     latest.Draft,
		CreatedAt: latest.CreatedAt,
	}, nil
}

// List returns up to limit releases, newest first.
func (c *Client) List(ctx context.Context, limit int) ([]Release, error) {
	if limit <= 0 {
		limit = 10
	}
	url := fmt.Sprintf("%s?per_page=%d", c.repoURL("releases"), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "publish", "list", "build request", err)
	}
	c.authorize(req)

	resp, err := c.do(ctx, req, "list")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, "list", string(body))
	}

	var entries []releaseResponse
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, services.Wrap(services.ErrNetwork, "publish", "list", "decode response", err)
	}

	releases := make([]Release, 0, len(entries))
	for _, entry := range entries {
		releases = append(releases, Release{
			ID:        entry.ID,
			Tag:       entry.TagName,
			Name:      entry.Name,
			HTMLURL:   entry.HTMLURL,
			Draft:     entry.Draft,
			CreatedAt: entry.CreatedAt,
		})
	}
	return releases, nil
}

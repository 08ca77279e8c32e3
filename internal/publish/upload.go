package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"lathe/internal/checksum"
	"lathe/internal/logging"
	"lathe/internal/services"
)

type assetResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"browser_download_url"`
}

// Upload streams one asset to the release's upload target. The local file
// is checked for existence before any network traffic; after the host
// confirms the upload, the reported size and a fresh local digest are
// compared against the asset's recorded values. Uploads are keyed by asset
// name within the release, so a failed upload may be retried without
// recreating the release.
func (c *Client) Upload(ctx context.Context, release *ReleaseRef, asset ReleaseAsset) (*UploadReceipt, error) {
	info, err := os.Stat(asset.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrMissingInput, "publish", "upload",
			fmt.Sprintf("asset %s not found at %s", asset.Name, asset.Path), nil)
	}
	if info.Size() != asset.Size {
		return nil, services.Wrap(services.ErrIntegrity, "publish", "upload",
			fmt.Sprintf("asset %s changed size since registration: %d != %d", asset.Name, info.Size(), asset.Size), nil)
	}

	target, err := uploadTarget(release.UploadURL, asset.Name)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "publish", "upload", "resolve upload target", err)
	}

	file, err := os.Open(asset.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "publish", "upload",
			fmt.Sprintf("open asset %s", asset.Name), err)
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, file)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "publish", "upload", "build request", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", asset.ContentType)
	req.ContentLength = info.Size()

	resp, err := c.do(ctx, req, "upload "+asset.Name)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusCreated {
		return nil, classifyStatus(resp.StatusCode, "upload "+asset.Name, string(body))
	}

	var confirmed assetResponse
	if err := json.Unmarshal(body, &confirmed); err != nil {
		return nil, services.Wrap(services.ErrNetwork, "publish", "upload "+asset.Name, "decode response", err)
	}

	if confirmed.Size != asset.Size {
		return nil, services.Wrap(services.ErrIntegrity, "publish", "upload",
			fmt.Sprintf("host reports %d bytes for %s, expected %d", confirmed.Size, asset.Name, asset.Size), nil)
	}
	_, digest, err := checksum.File(asset.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "publish", "upload",
			fmt.Sprintf("re-digest asset %s", asset.Name), err)
	}
	if digest != asset.Checksum {
		return nil, services.Wrap(services.ErrIntegrity, "publish", "upload",
			fmt.Sprintf("asset %s digest changed during upload", asset.Name), nil)
	}

	c.logger.Info("asset uploaded",
		logging.String("asset", asset.Name),
		logging.Int64("size", confirmed.Size),
		logging.String("download_url", confirmed.DownloadURL),
	)
	return &UploadReceipt{
		AssetName:   asset.Name,
		DownloadURL: confirmed.DownloadURL,
		Size:        confirmed.Size,
	}, nil
}

// uploadTarget resolves the host's upload URL template, which carries a
// "{?name,label}" suffix, into a concrete URL for one asset name.
func uploadTarget(template, assetName string) (string, error) {
	base := template
	if idx := strings.Index(base, "{"); idx >= 0 {
		base = base[:idx]
	}
	if base == "" {
		return "", fmt.Errorf("empty upload URL template")
	}
	return base + "?name=" + url.QueryEscape(assetName), nil
}

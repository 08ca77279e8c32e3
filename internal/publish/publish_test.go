package publish_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"lathe/internal/checksum"
	"lathe/internal/publish"
	"lathe/internal/services"
	"lathe/internal/testsupport"
)

func TestNewRequiresCredential(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPublishToken(""))
	cfg.Publish.TokenEnv = "LATHE_TEST_TOKEN_UNSET"

	_, err := publish.New(cfg, nil)
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestCreateRejectsDuplicateTag(t *testing.T) {
	var createCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/owner/repo/releases/tags/v2.1.4":
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{"id": 7, "tag_name": "v2.1.4"}`)
		case r.Method == http.MethodPost:
			createCalls.Add(1)
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Create(context.Background(), publish.ReleaseData{Tag: "v2.1.4", Title: "v2.1.4"})
	if !errors.Is(err, services.ErrDuplicateRelease) {
		t.Fatalf("expected ErrDuplicateRelease, got %v", err)
	}
	if createCalls.Load() != 0 {
		t.Fatal("duplicate tag must fail before the create call")
	}
	if services.IsRetryable(err) {
		t.Fatal("duplicate release must not be retryable")
	}
}

func TestCreateAndUploadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	assetPath := filepath.Join(dir, "TezgahTakip-v2.1.4-Linux")
	testsupport.WriteFile(t, assetPath, 4096)
	size, digest, err := checksum.File(assetPath)
	if err != nil {
		t.Fatal(err)
	}

	var uploadedName string
	var uploadedBytes int64
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/owner/repo/releases/tags/v2.1.4":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/repos/owner/repo/releases":
			if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Errorf("unexpected authorization header %q", got)
			}
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode create payload: %v", err)
			}
			if payload["tag_name"] != "v2.1.4" {
				t.Errorf("unexpected tag %v", payload["tag_name"])
			}
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{
				"id": 41,
				"tag_name": "v2.1.4",
				"upload_url": %q,
				"html_url": "https://example.com/releases/v2.1.4"
			}`, server.URL+"/uploads/41/assets{?name,label}")
		case r.Method == http.MethodPost && r.URL.Path == "/uploads/41/assets":
			uploadedName = r.URL.Query().Get("name")
			if got := r.Header.Get("Content-Type"); got != "application/octet-stream" {
				t.Errorf("unexpected content type %q", got)
			}
			n, _ := io.Copy(io.Discard, r.Body)
			uploadedBytes = n
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"id": 9, "name": %q, "size": %d, "browser_download_url": "https://example.com/dl/%s"}`,
				uploadedName, n, uploadedName)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ref, err := client.Create(context.Background(), publish.ReleaseData{Tag: "v2.1.4", Title: "v2.1.4"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ref.ID != 41 || ref.HTMLURL == "" {
		t.Fatalf("unexpected release ref %+v", ref)
	}

	receipt, err := client.Upload(context.Background(), ref, publish.ReleaseAsset{
		Name:        "TezgahTakip-v2.1.4-Linux",
		Path:        assetPath,
		ContentType: "application/octet-stream",
		Size:        size,
		Checksum:    digest,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if uploadedName != "TezgahTakip-v2.1.4-Linux" {
		t.Fatalf("asset name query parameter %q", uploadedName)
	}
	if uploadedBytes != size {
		t.Fatalf("uploaded %d bytes, expected %d", uploadedBytes, size)
	}
	if receipt.DownloadURL == "" || receipt.Size != size {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
}

func TestUploadMissingAssetSkipsNetwork(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ref := &publish.ReleaseRef{ID: 1, UploadURL: server.URL + "/uploads/1/assets{?name,label}"}
	_, err := client.Upload(context.Background(), ref, publish.ReleaseAsset{
		Name: "gone.bin",
		Path: filepath.Join(t.TempDir(), "gone.bin"),
	})
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("missing asset must not reach the network")
	}
}

func TestUploadSizeMismatchFromHostIsIntegrityFailure(t *testing.T) {
	dir := t.TempDir()
	assetPath := filepath.Join(dir, "bundle.bin")
	testsupport.WriteFile(t, assetPath, 1024)
	size, digest, err := checksum.File(assetPath)
	if err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id": 9, "name": "bundle.bin", "size": %d}`, size-1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ref := &publish.ReleaseRef{ID: 1, UploadURL: server.URL + "/uploads/1/assets{?name,label}"}
	_, err = client.Upload(context.Background(), ref, publish.ReleaseAsset{
		Name: "bundle.bin", Path: assetPath, Size: size, Checksum: digest,
	})
	if !errors.Is(err, services.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
	if services.IsRetryable(err) {
		t.Fatal("integrity mismatch must not be retryable")
	}
}

func TestTransportTimeoutIsRetryable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	cfg := testsupport.NewConfig(t, testsupport.WithPublishBaseURL(server.URL))
	client, err := publish.New(cfg, nil,
		publish.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Latest(context.Background())
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatal("timeout must also match the network class")
	}
	if !services.IsRetryable(err) {
		t.Fatal("timeout must be retryable")
	}
}

func TestValidateReportsMissingAfterConstruction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asset.bin")
	testsupport.WriteFile(t, path, 256)
	size, digest, err := checksum.File(path)
	if err != nil {
		t.Fatal(err)
	}

	asset := publish.ReleaseAsset{Name: "asset.bin", Path: path, Size: size, Checksum: digest}
	client := newTestClient(t, "http://unused.invalid")

	report := client.Validate([]publish.ReleaseAsset{asset})
	if !report.Valid || len(report.Missing) != 0 {
		t.Fatalf("expected clean report, got %+v", report)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	report = client.Validate([]publish.ReleaseAsset{asset})
	if report.Valid {
		t.Fatal("expected invalid report after deletion")
	}
	if len(report.Missing) != 1 || report.Missing[0] != "asset.bin" {
		t.Fatalf("expected asset listed missing, got %+v", report)
	}
}

func TestValidateReportsChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asset.bin")
	testsupport.WriteFile(t, path, 256)
	size, _, err := checksum.File(path)
	if err != nil {
		t.Fatal(err)
	}

	client := newTestClient(t, "http://unused.invalid")
	report := client.Validate([]publish.ReleaseAsset{{
		Name: "asset.bin", Path: path, Size: size, Checksum: "deadbeef",
	}})
	if report.Valid {
		t.Fatal("expected invalid report")
	}
	if len(report.ChecksumMismatches) != 1 {
		t.Fatalf("expected checksum mismatch listed, got %+v", report)
	}
}

func TestListReturnsNewestFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("per_page"); got != "2" {
			t.Errorf("unexpected per_page %q", got)
		}
		fmt.Fprint(w, `[
			{"id": 2, "tag_name": "v2.1.4", "name": "v2.1.4"},
			{"id": 1, "tag_name": "v2.1.3", "name": "v2.1.3"}
		]`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	releases, err := client.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(releases) != 2 || releases[0].Tag != "v2.1.4" {
		t.Fatalf("unexpected releases %+v", releases)
	}
}

func newTestClient(t *testing.T, baseURL string) *publish.Client {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithPublishBaseURL(baseURL))
	client, err := publish.New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

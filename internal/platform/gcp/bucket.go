package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/meetingdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

// ErrObjectNotFound is returned by DownloadFile and DeleteFile for missing keys.
var ErrObjectNotFound = errors.New("object not found")

// BucketService stores meeting assets (audio, video, documents) in one bucket.
// Browsers upload and download through presigned URLs; the server only
// touches bytes for provider hand-off and cleanup.
type BucketService interface {
	UploadFile(dbc dbctx.Context, key string, file io.Reader, contentType string) error
	DeleteFile(dbc dbctx.Context, key string) error
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
	SignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	GSURI(key string) string
	Close() error
}

type BucketConfig struct {
	Storage ObjectStorageConfig
	// PublicBaseURL is the emulator address as seen by browsers, when it
	// differs from EmulatorHost (e.g. inside docker compose).
	PublicBaseURL string
	Credentials   string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	httpClient    *http.Client
	mode          ObjectStorageMode
	bucket        string
	emulatorHost  string
	publicBaseURL string
}

func NewBucketService(log *logger.Logger, cfg BucketConfig) (BucketService, error) {
	if err := ValidateObjectStorageConfig(cfg.Storage); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	publicBaseURL, publicBaseSource, err := resolvePublicBaseURL(cfg.PublicBaseURL, cfg.Storage)
	if err != nil {
		return nil, err
	}
	serviceLog := log.With("service", "BucketService")

	stClient, err := newStorageClientForMode(context.Background(), cfg.Storage, cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Storage.Mode,
		"mode_source", cfg.Storage.ModeSource(),
		"emulator_host", cfg.Storage.EmulatorHost,
		"public_base_source", publicBaseSource,
		"bucket", cfg.Storage.Bucket,
	)

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		httpClient:    &http.Client{Timeout: 2 * time.Minute},
		mode:          cfg.Storage.Mode,
		bucket:        cfg.Storage.Bucket,
		emulatorHost:  cfg.Storage.EmulatorHost,
		publicBaseURL: publicBaseURL,
	}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig, credentials string) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptions(credentials)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		// The storage client only honours the emulator through the env var.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func resolvePublicBaseURL(raw string, cfg ObjectStorageConfig) (baseURL string, source string, err error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		parsed, parseErr := url.Parse(raw)
		if parseErr != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
			return "", "", fmt.Errorf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443", raw)
		}
		return strings.TrimRight(raw, "/"), "object_storage_public_base_url", nil
	}
	if cfg.IsEmulatorMode() {
		return cfg.EmulatorHost, "storage_emulator_host", nil
	}
	return "", "gcs_default", nil
}

func (bs *bucketService) Close() error {
	if bs == nil || bs.storageClient == nil {
		return nil
	}
	return bs.storageClient.Close()
}

func (bs *bucketService) UploadFile(dbc dbctx.Context, key string, file io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(dbc.Ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(bs.bucket).Object(key).NewWriter(ctx)
	if contentType == "" {
		contentType = ContentTypeForKey(key)
	}
	w.ContentType = contentType
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *bucketService) DeleteFile(dbc dbctx.Context, key string) error {
	ctx, cancel := context.WithTimeout(dbc.Ctx, 30*time.Second)
	defer cancel()
	if err := bs.storageClient.Bucket(bs.bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete %q: %w", key, ErrObjectNotFound)
		}
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, bs.bucket, err)
	}
	return nil
}

// readCloserWithCancel ties the download context to the reader's lifetime.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *bucketService) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	if bs.mode == ObjectStorageModeGCSEmulator {
		req, err := http.NewRequestWithContext(ctx2, http.MethodGet, emulatorMediaURL(bs.emulatorHost, bs.bucket, key), nil)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed creating emulator download request: %w", err)
		}
		resp, err := bs.httpClient.Do(req)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed emulator download request: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("download %q: %w", key, ErrObjectNotFound)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("emulator download failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return &readCloserWithCancel{ReadCloser: resp.Body, cancel: cancel}, nil
	}

	r, err := bs.storageClient.Bucket(bs.bucket).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("download %q: %w", key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

// SignedUploadURL returns a V4 presigned PUT URL. The uploader must send the
// same Content-Type. The emulator does not check signatures, so a plain
// object URL is returned there.
func (bs *bucketService) SignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("signed upload url: empty key")
	}
	if bs.mode == ObjectStorageModeGCSEmulator {
		return emulatorUploadURL(bs.publicBaseURL, bs.bucket, key), nil
	}
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodPut,
		Expires: time.Now().Add(ttl),
	}
	if contentType != "" {
		opts.ContentType = contentType
	}
	u, err := bs.storageClient.Bucket(bs.bucket).SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("sign upload url for %q: %w", key, err)
	}
	return u, nil
}

func (bs *bucketService) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("signed read url: empty key")
	}
	if bs.mode == ObjectStorageModeGCSEmulator {
		return emulatorMediaURL(bs.publicBaseURL, bs.bucket, key), nil
	}
	u, err := bs.storageClient.Bucket(bs.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign read url for %q: %w", key, err)
	}
	return u, nil
}

func (bs *bucketService) GSURI(key string) string {
	return fmt.Sprintf("gs://%s/%s", bs.bucket, strings.TrimLeft(key, "/"))
}

func emulatorMediaURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media",
		strings.TrimRight(base, "/"), url.PathEscape(bucket), url.PathEscape(key))
}

// emulatorUploadURL targets fake-gcs-server's XML-style object endpoint,
// which accepts PUT like a signed URL would.
func emulatorUploadURL(base, bucket, key string) string {
	segs := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), url.PathEscape(bucket), strings.Join(segs, "/"))
}

func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(s, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(s, ".m4a"):
		return "audio/mp4"
	case strings.HasSuffix(s, ".flac"):
		return "audio/flac"
	case strings.HasSuffix(s, ".ogg"), strings.HasSuffix(s, ".opus"):
		return "audio/ogg"
	case strings.HasSuffix(s, ".webm"):
		return "video/webm"
	case strings.HasSuffix(s, ".mp4"), strings.HasSuffix(s, ".m4v"):
		return "video/mp4"
	case strings.HasSuffix(s, ".mov"):
		return "video/quicktime"
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(s, ".txt"):
		return "text/plain"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

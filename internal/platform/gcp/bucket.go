package gcp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

type BucketCategory string

const (
	BucketCategoryAdShots    BucketCategory = "ad_shots"
	BucketCategoryStoryboard BucketCategory = "storyboard"
)

// Every category lives in the shots bucket under its own key prefix.
var categoryPrefix = map[BucketCategory]string{
	BucketCategoryAdShots:    "",
	BucketCategoryStoryboard: "storyboards/",
}

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".json": "application/json",
}

const (
	uploadTimeout   = 2 * time.Minute
	downloadTimeout = 2 * time.Minute
	deleteTimeout   = 30 * time.Second
)

// BucketService stores rendered shot images and storyboard sheets.
type BucketService interface {
	UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error
	DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	GetPublicURL(category BucketCategory, key string) string
}

type shotStore struct {
	log          *logger.Logger
	client       *storage.Client
	bucket       string
	cdnDomain    string
	publicBase   string
	mode         ObjectStorageMode
	emulatorHost string
	httpClient   *http.Client
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	storageCfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("resolve object storage config: %w", err)
	}
	return NewBucketServiceWithConfig(log, storageCfg)
}

// NewBucketServiceWithConfig reads ADPACK_GCS_BUCKET_NAME, ADPACK_CDN_DOMAIN
// and OBJECT_STORAGE_PUBLIC_BASE_URL from the environment.
func NewBucketServiceWithConfig(log *logger.Logger, storageCfg ObjectStorageConfig) (BucketService, error) {
	if err := ValidateObjectStorageConfig(storageCfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	bucket := strings.TrimSpace(os.Getenv("ADPACK_GCS_BUCKET_NAME"))
	if bucket == "" {
		return nil, fmt.Errorf("missing env var ADPACK_GCS_BUCKET_NAME")
	}
	publicBase, baseSource, err := resolveObjectStoragePublicBaseURL(storageCfg)
	if err != nil {
		return nil, err
	}
	client, err := openStorageClient(context.Background(), storageCfg)
	if err != nil {
		return nil, fmt.Errorf("open storage client: %w", err)
	}

	store := &shotStore{
		log:          log.With("service", "ShotStore"),
		client:       client,
		bucket:       bucket,
		cdnDomain:    strings.TrimSpace(os.Getenv("ADPACK_CDN_DOMAIN")),
		publicBase:   publicBase,
		mode:         storageCfg.Mode,
		emulatorHost: trimBase(storageCfg.EmulatorHost),
		httpClient:   &http.Client{},
	}
	store.log.Info("shot storage ready",
		"bucket", bucket,
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"public_base", publicBase,
		"public_base_source", baseSource,
	)
	return store, nil
}

// credentialOptions accepts inline JSON or a file path, JSON variable first.
func credentialOptions() []option.ClientOption {
	for _, key := range []string{"GOOGLE_APPLICATION_CREDENTIALS_JSON", "GOOGLE_APPLICATION_CREDENTIALS"} {
		creds := strings.TrimSpace(os.Getenv(key))
		switch {
		case creds == "":
			continue
		case strings.HasPrefix(creds, "{"):
			return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
		default:
			return []option.ClientOption{option.WithCredentialsFile(creds)}
		}
	}
	return nil
}

func openStorageClient(ctx context.Context, storageCfg ObjectStorageConfig) (*storage.Client, error) {
	switch storageCfg.Mode {
	case ObjectStorageModeGCS:
		opts := append(credentialOptions(), option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		// The storage client only honors the emulator through this variable.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", trimBase(storageCfg.EmulatorHost))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(storageCfg.Mode)}
}

func resolveObjectStoragePublicBaseURL(storageCfg ObjectStorageConfig) (string, string, error) {
	if raw := strings.TrimSpace(os.Getenv("OBJECT_STORAGE_PUBLIC_BASE_URL")); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return "", "", fmt.Errorf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443", raw)
		}
		return trimBase(raw), "object_storage_public_base_url", nil
	}
	if storageCfg.IsEmulatorMode() {
		return trimBase(storageCfg.EmulatorHost), "storage_emulator_host", nil
	}
	return "", "gcs_default", nil
}

func trimBase(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}

// objectName prefixes key for category. ok is false for unknown categories.
func objectName(category BucketCategory, key string) (string, bool) {
	prefix, ok := categoryPrefix[category]
	if !ok {
		return "", false
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if prefix != "" && !strings.HasPrefix(key, prefix) {
		key = prefix + key
	}
	return key, true
}

func (s *shotStore) object(category BucketCategory, key string) (*storage.ObjectHandle, string, error) {
	name, ok := objectName(category, key)
	if !ok {
		return nil, "", fmt.Errorf("unknown bucket category: %s", category)
	}
	return s.client.Bucket(s.bucket).Object(name), name, nil
}

func contentTypeForKey(key string) string {
	key = strings.TrimSpace(key)
	if i := strings.IndexByte(key, '?'); i >= 0 {
		key = key[:i]
	}
	return contentTypes[strings.ToLower(path.Ext(key))]
}

func (s *shotStore) UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error {
	obj, name, err := s.object(category, key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, uploadTimeout)
	defer cancel()

	w := obj.NewWriter(ctx)
	w.ContentType = contentTypeForKey(name)
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", name, err)
	}
	return nil
}

func (s *shotStore) DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error {
	obj, name, err := s.object(category, key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, deleteTimeout)
	defer cancel()
	if err := obj.Delete(ctx); err != nil {
		return fmt.Errorf("delete %s from %s: %w", name, s.bucket, err)
	}
	return nil
}

// GetPublicURL prefers the CDN, then the emulator media endpoint, then the
// configured public base, then storage.googleapis.com. Unknown categories
// return key unchanged.
func (s *shotStore) GetPublicURL(category BucketCategory, key string) string {
	name, ok := objectName(category, key)
	if !ok {
		return key
	}
	switch {
	case s.cdnDomain != "":
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, name)
	case s.mode == ObjectStorageModeGCSEmulator && s.mediaURL(s.publicBase, name) != "":
		return s.mediaURL(s.publicBase, name)
	case s.publicBase != "":
		return fmt.Sprintf("%s/%s/%s", s.publicBase, s.bucket, name)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name)
}

// mediaURL is the JSON API download endpoint; base defaults to the emulator host.
func (s *shotStore) mediaURL(base, name string) string {
	if base = trimBase(base); base == "" {
		base = s.emulatorHost
	}
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(s.bucket), url.PathEscape(name))
}

// cancelOnClose releases the download deadline once the caller is done reading.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r cancelOnClose) Close() error {
	defer r.cancel()
	return r.ReadCloser.Close()
}

func (s *shotStore) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	obj, name, err := s.object(category, key)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	var body io.ReadCloser
	if IsEmulatorObjectStorageMode(s.mode) && s.emulatorHost != "" {
		body, err = s.emulatorDownload(ctx, name)
	} else {
		body, err = obj.NewReader(ctx)
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	return cancelOnClose{ReadCloser: body, cancel: cancel}, nil
}

// emulatorDownload reads through the emulator JSON media endpoint.
func (s *shotStore) emulatorDownload(ctx context.Context, name string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.mediaURL("", name), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("emulator status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp.Body, nil
}

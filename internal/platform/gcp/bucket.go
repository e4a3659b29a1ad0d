package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/formationvault-backend/internal/platform/dbctx"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

type BucketCategory string

const (
	// BucketCategoryVault holds every per-company vault artifact.
	BucketCategoryVault BucketCategory = "vault"
	// BucketCategoryTemplate holds the document template library.
	BucketCategoryTemplate BucketCategory = "template"
)

var ErrObjectNotFound = errors.New("object not found")

const (
	uploadTimeout   = 2 * time.Minute
	downloadTimeout = 2 * time.Minute
)

// BucketService is the object store behind the document vault.
type BucketService interface {
	UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	GetPublicURL(category BucketCategory, key string) string
}

type bucketService struct {
	log    *logger.Logger
	client *storage.Client
	cfg    ObjectStorageConfig
}

// NewBucketServiceWithConfig validates cfg and returns the in-memory store or a
// GCS-backed one (real or emulator).
func NewBucketServiceWithConfig(log *logger.Logger, cfg ObjectStorageConfig) (BucketService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if cfg.IsMemoryMode() {
		log.Warn("Object storage running in memory mode; artifacts are not durable")
		return NewMemoryBucketService(), nil
	}

	client, err := storage.NewClient(context.Background(), clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	bs := &bucketService{log: log.Named("bucket"), client: client, cfg: cfg}
	bs.log.Info("Object storage initialized",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"vault_bucket", cfg.VaultBucket,
		"template_bucket", cfg.templateBucket(),
		"public_base_url", cfg.publicBase(),
	)
	return bs, nil
}

func clientOptions(cfg ObjectStorageConfig) []option.ClientOption {
	if cfg.IsEmulatorMode() {
		host := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		return []option.ClientOption{option.WithEndpoint(host + "/storage/v1/"), option.WithoutAuthentication()}
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	switch creds := strings.TrimSpace(cfg.Credentials); {
	case creds == "":
	case strings.HasPrefix(creds, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	default:
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	return opts
}

func (bs *bucketService) bucketFor(category BucketCategory) (string, error) {
	switch category {
	case BucketCategoryVault:
		return bs.cfg.VaultBucket, nil
	case BucketCategoryTemplate:
		return bs.cfg.templateBucket(), nil
	}
	return "", fmt.Errorf("unknown bucket category: %s", category)
}

func (bs *bucketService) UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error {
	name, err := bs.bucketFor(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, uploadTimeout)
	defer cancel()

	w := bs.client.Bucket(name).Object(key).NewWriter(ctx)
	w.ContentType = ContentTypeForKey(key)
	// Vault artifacts hold PII; keep intermediaries from caching them.
	w.CacheControl = "private, no-store"
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %q to bucket %q: %w", key, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %q in bucket %q: %w", key, name, err)
	}
	return nil
}

func (bs *bucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	name, err := bs.bucketFor(category)
	if err != nil {
		return nil, err
	}
	rctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	r, err := bs.client.Bucket(name).Object(key).NewReader(rctx)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("download %q: %w", key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("open %q in bucket %q: %w", key, name, err)
	}
	return &cancelOnClose{ReadCloser: r, cancel: cancel}, nil
}

// GetPublicURL links template files for external renderers. Vault artifacts are
// never meant to be fetched this way; they go through the access controller.
func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	name, err := bs.bucketFor(category)
	if err != nil {
		return key
	}
	key = escapeKeyPath(strings.TrimLeft(strings.TrimSpace(key), "/"))
	if category == BucketCategoryTemplate && bs.cfg.TemplateCDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.cfg.TemplateCDNDomain, key)
	}
	if base := bs.cfg.publicBase(); base != "" {
		return fmt.Sprintf("%s/%s/%s", base, name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", name, key)
}

// ContentTypeForKey maps a storage key extension to the content type recorded on upload.
func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(s, ".html"), strings.HasSuffix(s, ".htm"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	}
	return "application/octet-stream"
}

// escapeKeyPath escapes each segment so template names with spaces and commas survive.
func escapeKeyPath(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// The download context must outlive the call; it is released on Close.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *cancelOnClose) Close() error {
	err := r.ReadCloser.Close()
	r.cancel()
	return err
}

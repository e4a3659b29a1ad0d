package app

import (
	"strings"
	"time"

	"github.com/yungbote/formationvault-backend/internal/platform/envutil"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
	"github.com/yungbote/formationvault-backend/internal/temporalx"
)

type Config struct {
	Port        string
	MetricsAddr string
	Environment string
	Version     string

	JWTSecretKey   string
	StaffRoles     []string
	AllowedOrigins []string
	PublicBaseURL  string

	WebhookHeader string
	WebhookSecret string

	ObjectStorageMode         string
	StorageEmulatorHost       string
	StorageModeCompatFallback bool
	VaultBucket               string
	TemplateBucket            string
	TemplateCDNDomain         string
	StoragePublicBaseURL      string
	StorageCredentials        string

	TemplateCatalogPath string
	TemplateBaseURL     string

	ConvertServiceURL  string
	ConvertTimeout     time.Duration
	HTMLConvertEnabled bool
	ChromiumPath       string
	ConvertTo          string

	PipelineTimeout   time.Duration
	BundleConcurrency int

	Temporal  temporalx.Config
	RunWorker bool
}

func LoadConfig(log *logger.Logger) Config {
	storageMode := envutil.String("OBJECT_STORAGE_MODE", "")
	emulatorHost := envutil.String("STORAGE_EMULATOR_HOST", "")
	compat := false
	if storageMode == "" {
		storageMode = "gcs"
		if emulatorHost != "" {
			storageMode = "gcs_emulator"
			compat = true
		}
	}

	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		MetricsAddr: envutil.String("METRICS_ADDR", ":9090"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", ""),
		StaffRoles:     splitList(envutil.String("STAFF_ROLES", "staff,admin")),
		AllowedOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		PublicBaseURL:  strings.TrimRight(envutil.String("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),

		WebhookHeader: envutil.String("PAYMENT_WEBHOOK_HEADER", "X-Webhook-Secret"),
		WebhookSecret: envutil.String("PAYMENT_WEBHOOK_SECRET", ""),

		ObjectStorageMode:         strings.ToLower(storageMode),
		StorageEmulatorHost:       emulatorHost,
		StorageModeCompatFallback: compat,
		VaultBucket:               envutil.String("VAULT_GCS_BUCKET_NAME", ""),
		TemplateBucket:            envutil.String("TEMPLATE_GCS_BUCKET_NAME", ""),
		TemplateCDNDomain:         envutil.String("TEMPLATE_CDN_DOMAIN", ""),
		StoragePublicBaseURL:      envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", ""),
		StorageCredentials:        firstNonEmpty(envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", ""), envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "")),

		TemplateCatalogPath: envutil.String("TEMPLATE_CATALOG_PATH", ""),
		TemplateBaseURL:     envutil.String("TEMPLATE_BASE_URL", ""),

		ConvertServiceURL:  envutil.String("CONVERT_SERVICE_URL", ""),
		ConvertTimeout:     envutil.Seconds("CONVERT_TIMEOUT_SECONDS", 60*time.Second),
		HTMLConvertEnabled: envutil.Bool("HTML_CONVERT_ENABLED", false),
		ChromiumPath:       envutil.String("CHROMIUM_PATH", ""),
		ConvertTo:          strings.ToLower(envutil.String("GENERATION_CONVERT_TO", "pdf")),

		PipelineTimeout:   envutil.Seconds("GENERATION_PIPELINE_TIMEOUT_SECONDS", 5*time.Minute),
		BundleConcurrency: envutil.Int("GENERATION_BUNDLE_CONCURRENCY", 3),

		Temporal:  temporalx.LoadConfig(),
		RunWorker: envutil.Bool("TEMPORAL_WORKER_ENABLED", true),
	}
	if cfg.ConvertTo == "none" {
		cfg.ConvertTo = ""
	}

	if cfg.JWTSecretKey == "" && log != nil {
		log.Warn("JWT_SECRET_KEY not set; every bearer token will be rejected")
	}
	if cfg.WebhookSecret == "" && log != nil {
		log.Warn("PAYMENT_WEBHOOK_SECRET not set; payment webhook disabled")
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

package gcp

import (
	"fmt"
	"net/url"
	"strings"
)

type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
	ObjectStorageModeMemory      ObjectStorageMode = "memory"
)

func IsSupportedObjectStorageMode(mode ObjectStorageMode) bool {
	switch mode {
	case ObjectStorageModeGCS, ObjectStorageModeGCSEmulator, ObjectStorageModeMemory:
		return true
	}
	return false
}

// ObjectStorageConfig describes where vault artifacts and template files live.
// TemplateBucket falls back to VaultBucket when empty.
type ObjectStorageConfig struct {
	Mode                  ObjectStorageMode
	EmulatorHost          string
	CompatibilityFallback bool

	VaultBucket       string
	TemplateBucket    string
	TemplateCDNDomain string
	PublicBaseURL     string

	// Credentials is inline service-account JSON or a path to a key file.
	Credentials string
}

func (cfg ObjectStorageConfig) IsEmulatorMode() bool { return cfg.Mode == ObjectStorageModeGCSEmulator }
func (cfg ObjectStorageConfig) IsMemoryMode() bool   { return cfg.Mode == ObjectStorageModeMemory }

func (cfg ObjectStorageConfig) ModeSource() string {
	if cfg.CompatibilityFallback {
		return "compatibility_fallback"
	}
	return "explicit_or_default"
}

func (cfg ObjectStorageConfig) templateBucket() string {
	if b := strings.TrimSpace(cfg.TemplateBucket); b != "" {
		return b
	}
	return strings.TrimSpace(cfg.VaultBucket)
}

// publicBase is the prefix used for template links: the explicit base URL, then
// the emulator host, then nothing (GCS default host).
func (cfg ObjectStorageConfig) publicBase() string {
	if b := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"); b != "" {
		return b
	}
	if cfg.IsEmulatorMode() {
		return strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
	}
	return ""
}

type ObjectStorageConfigErrorCode string

const (
	ObjectStorageConfigErrorInvalidMode          ObjectStorageConfigErrorCode = "invalid_mode"
	ObjectStorageConfigErrorMissingEmulatorHost  ObjectStorageConfigErrorCode = "missing_emulator_host"
	ObjectStorageConfigErrorInvalidEmulatorHost  ObjectStorageConfigErrorCode = "invalid_emulator_host"
	ObjectStorageConfigErrorMissingVaultBucket   ObjectStorageConfigErrorCode = "missing_vault_bucket"
	ObjectStorageConfigErrorInvalidPublicBaseURL ObjectStorageConfigErrorCode = "invalid_public_base_url"
)

type ObjectStorageConfigError struct {
	Code  ObjectStorageConfigErrorCode
	Mode  string
	Value string
	Cause error
}

func (e *ObjectStorageConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case ObjectStorageConfigErrorInvalidMode:
		return fmt.Sprintf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q, %q)",
			e.Mode, ObjectStorageModeGCS, ObjectStorageModeGCSEmulator, ObjectStorageModeMemory)
	case ObjectStorageConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST", ObjectStorageModeGCSEmulator)
	case ObjectStorageConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.Value)
	case ObjectStorageConfigErrorMissingVaultBucket:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires VAULT_GCS_BUCKET_NAME", e.Mode)
	case ObjectStorageConfigErrorInvalidPublicBaseURL:
		return fmt.Sprintf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL", e.Value)
	}
	return "invalid object storage config"
}

func (e *ObjectStorageConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Validate checks the mode and, outside memory mode, the buckets and URLs it needs.
func (cfg ObjectStorageConfig) Validate() error {
	mode := string(cfg.Mode)
	if !IsSupportedObjectStorageMode(cfg.Mode) {
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: mode}
	}
	if cfg.IsMemoryMode() {
		return nil
	}
	if cfg.IsEmulatorMode() {
		host := strings.TrimSpace(cfg.EmulatorHost)
		if host == "" {
			return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorMissingEmulatorHost, Mode: mode}
		}
		if err := absoluteURL(host); err != nil {
			return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidEmulatorHost, Mode: mode, Value: host, Cause: err}
		}
	}
	if strings.TrimSpace(cfg.VaultBucket) == "" {
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorMissingVaultBucket, Mode: mode}
	}
	if raw := strings.TrimSpace(cfg.PublicBaseURL); raw != "" {
		if err := absoluteURL(raw); err != nil {
			return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidPublicBaseURL, Mode: mode, Value: raw, Cause: err}
		}
	}
	return nil
}

func absoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}

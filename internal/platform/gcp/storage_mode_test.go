package gcp

import (
	"errors"
	"testing"
)

func TestObjectStorageConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  ObjectStorageConfig
		want ObjectStorageConfigErrorCode
	}{
		{"memory needs nothing", ObjectStorageConfig{Mode: ObjectStorageModeMemory}, ""},
		{"gcs with bucket", ObjectStorageConfig{Mode: ObjectStorageModeGCS, VaultBucket: "vaults"}, ""},
		{"emulator with host", ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443", VaultBucket: "vaults"}, ""},
		{"unknown mode", ObjectStorageConfig{Mode: "s3"}, ObjectStorageConfigErrorInvalidMode},
		{"empty mode", ObjectStorageConfig{}, ObjectStorageConfigErrorInvalidMode},
		{"emulator without host", ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, VaultBucket: "vaults"}, ObjectStorageConfigErrorMissingEmulatorHost},
		{"emulator host without scheme", ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "fake-gcs:4443", VaultBucket: "vaults"}, ObjectStorageConfigErrorInvalidEmulatorHost},
		{"gcs without bucket", ObjectStorageConfig{Mode: ObjectStorageModeGCS}, ObjectStorageConfigErrorMissingVaultBucket},
		{"relative public base", ObjectStorageConfig{Mode: ObjectStorageModeGCS, VaultBucket: "vaults", PublicBaseURL: "localhost:4443"}, ObjectStorageConfigErrorInvalidPublicBaseURL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("Validate: want nil got=%v", err)
				}
				return
			}
			var cfgErr *ObjectStorageConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate: want *ObjectStorageConfigError got=%T (%v)", err, err)
			}
			if cfgErr.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, cfgErr.Code)
			}
			if cfgErr.Error() == "" {
				t.Fatalf("Error(): empty message")
			}
		})
	}
}

func TestObjectStorageConfigModeSource(t *testing.T) {
	if got := (ObjectStorageConfig{CompatibilityFallback: true}).ModeSource(); got != "compatibility_fallback" {
		t.Fatalf("ModeSource: want=%q got=%q", "compatibility_fallback", got)
	}
	if got := (ObjectStorageConfig{}).ModeSource(); got != "explicit_or_default" {
		t.Fatalf("ModeSource: want=%q got=%q", "explicit_or_default", got)
	}
}

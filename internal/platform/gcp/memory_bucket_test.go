package gcp

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yungbote/formationvault-backend/internal/platform/dbctx"
)

func TestMemoryBucketServiceOverwrite(t *testing.T) {
	ctx := context.Background()
	bs := NewMemoryBucketService()
	key := "vaults/u/acme-1/formation/Acme-Membership-Registry.docx"

	for _, body := range []string{"v1", "v2"} {
		if err := bs.UploadFile(dbctx.Context{Ctx: ctx}, BucketCategoryVault, key, strings.NewReader(body)); err != nil {
			t.Fatalf("UploadFile %s: %v", body, err)
		}
	}
	rc, err := bs.DownloadFile(ctx, BucketCategoryVault, key)
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "v2" {
		t.Fatalf("DownloadFile: want=%q got=%q", "v2", string(body))
	}
	if got := bs.Writes(BucketCategoryVault, key); got != 2 {
		t.Fatalf("Writes: want=2 got=%d", got)
	}
	if _, err := bs.DownloadFile(ctx, BucketCategoryTemplate, key); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("DownloadFile(template): expected category isolation, got=%v", err)
	}
}

func TestMemoryBucketServiceMissingObject(t *testing.T) {
	bs := NewMemoryBucketService()
	_, err := bs.DownloadFile(context.Background(), BucketCategoryVault, "missing.pdf")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("DownloadFile: expected ErrObjectNotFound, got=%v", err)
	}
}

func TestMemoryBucketServiceHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bs := NewMemoryBucketService()
	if err := bs.UploadFile(dbctx.Context{Ctx: ctx}, BucketCategoryVault, "k.pdf", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("UploadFile: want context.Canceled got=%v", err)
	}
}

package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/formationvault-backend/internal/domain/vault"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

func TestAuditStream_AppendAndRecent(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	stream := fmt.Sprintf("test-document-access-%d", time.Now().UnixNano())
	s := newAuditStream(logger.NewNop(), rdb, stream, 10)
	defer func() {
		_ = rdb.Del(context.Background(), stream).Err()
		_ = s.Close()
	}()

	ctx := context.Background()
	for _, ref := range []string{"bylaws", "membership-registry"} {
		if err := s.Append(ctx, &vault.AccessLog{RequesterID: "u1", DocumentRef: ref, Outcome: vault.AccessServed}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, err := s.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].Fields["document_ref"] != "membership-registry" {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestNewAuditStream_RequiresAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	if _, err := NewAuditStream(logger.NewNop()); err == nil {
		t.Fatalf("expected error without REDIS_ADDR")
	}
}

package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/formationvault-backend/internal/domain/vault"
	"github.com/yungbote/formationvault-backend/internal/platform/envutil"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

// AuditStream mirrors document reads onto a capped Redis stream so other
// services can follow access in near real time. The database log stays the
// record of truth.
type AuditStream interface {
	Append(ctx context.Context, row *vault.AccessLog) error
	Recent(ctx context.Context, count int64) ([]AuditEntry, error)
	Close() error
}

type AuditEntry struct {
	ID     string
	Fields map[string]string
}

type auditStream struct {
	log    *logger.Logger
	rdb    *goredis.Client
	stream string
	maxLen int64
}

func NewAuditStream(log *logger.Logger) (AuditStream, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", ""),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newAuditStream(log, rdb, envutil.String("REDIS_AUDIT_STREAM", "document-access"), int64(envutil.Int("REDIS_AUDIT_MAXLEN", 100000))), nil
}

func newAuditStream(log *logger.Logger, rdb *goredis.Client, stream string, maxLen int64) *auditStream {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &auditStream{
		log:    log.With("service", "RedisAuditStream"),
		rdb:    rdb,
		stream: strings.TrimSpace(stream),
		maxLen: maxLen,
	}
}

func (s *auditStream) Append(ctx context.Context, row *vault.AccessLog) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis audit stream not initialized")
	}
	if row == nil {
		return nil
	}
	at := row.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return s.rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"requester_id": row.RequesterID,
			"privileged":   strconv.FormatBool(row.Privileged),
			"company_id":   row.CompanyID,
			"document_ref": row.DocumentRef,
			"resolved_key": row.ResolvedKey,
			"outcome":      string(row.Outcome),
			"format":       row.Format,
			"request_id":   row.RequestID,
			"at":           at.Format(time.RFC3339Nano),
		},
	}).Err()
}

// Recent returns up to count entries, newest first.
func (s *auditStream) Recent(ctx context.Context, count int64) ([]AuditEntry, error) {
	if s == nil || s.rdb == nil {
		return nil, fmt.Errorf("redis audit stream not initialized")
	}
	if count <= 0 {
		count = 50
	}
	msgs, err := s.rdb.XRevRangeN(ctx, s.stream, "+", "-", count).Result()
	if err != nil {
		return nil, err
	}
	out := make([]AuditEntry, 0, len(msgs))
	for _, m := range msgs {
		fields := make(map[string]string, len(m.Values))
		for k, v := range m.Values {
			fields[k] = fmt.Sprint(v)
		}
		out = append(out, AuditEntry{ID: m.ID, Fields: fields})
	}
	return out, nil
}

func (s *auditStream) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

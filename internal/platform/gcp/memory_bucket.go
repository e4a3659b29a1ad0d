package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/yungbote/formationvault-backend/internal/platform/dbctx"
)

// MemoryBucketService keeps objects in process memory. Used by OBJECT_STORAGE_MODE=memory
// and by tests.
type MemoryBucketService struct {
	mu      sync.RWMutex
	objects map[string][]byte
	writes  map[string]int
}

func NewMemoryBucketService() *MemoryBucketService {
	return &MemoryBucketService{objects: map[string][]byte{}, writes: map[string]int{}}
}

func memoryKey(category BucketCategory, key string) string {
	return string(category) + "|" + key
}

func (m *MemoryBucketService) UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error {
	if dbc.Ctx != nil {
		if err := dbc.Ctx.Err(); err != nil {
			return err
		}
	}
	raw, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}
	k := memoryKey(category, key)
	m.mu.Lock()
	m.objects[k] = raw
	m.writes[k]++
	m.mu.Unlock()
	return nil
}

func (m *MemoryBucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	m.mu.RLock()
	raw, ok := m.objects[memoryKey(category, key)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("download %q: %w", key, ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (m *MemoryBucketService) GetPublicURL(category BucketCategory, key string) string {
	return fmt.Sprintf("memory://%s/%s", category, escapeKeyPath(strings.TrimLeft(key, "/")))
}

// Writes reports how many uploads hit key.
func (m *MemoryBucketService) Writes(category BucketCategory, key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[memoryKey(category, key)]
}

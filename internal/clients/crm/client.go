package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/formationvault-backend/internal/domain/formation"
	"github.com/yungbote/formationvault-backend/internal/platform/ctxutil"
	"github.com/yungbote/formationvault-backend/internal/platform/envutil"
	"github.com/yungbote/formationvault-backend/internal/platform/httpx"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

// RecordStore is the company intake record store. Reads are eventually
// consistent and update failures are the caller's to log.
type RecordStore interface {
	Fetch(ctx context.Context, recordID string) (*formation.SourceRecord, error)
	Update(ctx context.Context, recordID string, fields map[string]any) error
}

type Config struct {
	BaseURL    string
	APIKey     string
	Table      string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:    envutil.String("CRM_BASE_URL", ""),
		APIKey:     envutil.String("CRM_API_KEY", ""),
		Table:      envutil.String("CRM_TABLE", "Companies"),
		Timeout:    envutil.Seconds("CRM_TIMEOUT_SECONDS", 20*time.Second),
		MaxRetries: envutil.Int("CRM_MAX_RETRIES", 3),
	}
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func NewFromEnv(log *logger.Logger) (RecordStore, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (RecordStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing CRM_BASE_URL")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing CRM_API_KEY")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		cfg.Table = "Companies"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("client", "CRMClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type recordPayload struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

func (c *client) Fetch(ctx context.Context, recordID string) (*formation.SourceRecord, error) {
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return nil, formation.ErrRecordNotFound
	}
	raw, err := c.do(ctx, http.MethodGet, c.recordURL(recordID), nil)
	if err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("record %s: %w", recordID, formation.ErrRecordNotFound)
		}
		return nil, err
	}

	var rec recordPayload
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("crm decode record %s: %w", recordID, err)
	}
	id := rec.ID
	if id == "" {
		id = recordID
	}
	return formation.NewSourceRecord(id, formation.Fields(rec.Fields)), nil
}

func (c *client) Update(ctx context.Context, recordID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	body, err := json.Marshal(map[string]any{"fields": fields, "typecast": true})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPatch, c.recordURL(recordID), body)
	return err
}

func (c *client) recordURL(recordID string) string {
	return fmt.Sprintf("%s/%s/%s", c.cfg.BaseURL, url.PathEscape(c.cfg.Table), url.PathEscape(recordID))
}

func (c *client) do(ctx context.Context, method, urlStr string, body []byte) ([]byte, error) {
	ctx = ctxutil.Default(ctx)
	backoff := 500 * time.Millisecond

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		raw, resp, err := c.doOnce(ctx, method, urlStr, body)
		if err == nil {
			return raw, nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries || ctx.Err() != nil {
			return nil, err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("CRM request retrying",
			"method", method,
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("unreachable retry loop")
}

func (c *client) doOnce(ctx context.Context, method, urlStr string, body []byte) ([]byte, *http.Response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, urlStr, rdr)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp, &httpx.StatusError{Service: "crm", StatusCode: resp.StatusCode, Body: httpx.TruncateBody(raw)}
	}
	return raw, resp, nil
}

package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/formationvault-backend/internal/domain/formation"
	"github.com/yungbote/formationvault-backend/internal/platform/ctxutil"
	"github.com/yungbote/formationvault-backend/internal/platform/envutil"
	"github.com/yungbote/formationvault-backend/internal/platform/httpx"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

// Client calls the external document rendering service. Every failure,
// timeouts included, is a *formation.RenderingServiceError.
type Client interface {
	Render(ctx context.Context, req Request) (*Result, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL: envutil.String("RENDER_SERVICE_URL", ""),
		APIKey:  envutil.String("RENDER_API_KEY", ""),
		Timeout: envutil.Seconds("RENDER_TIMEOUT_SECONDS", 90*time.Second),
	}
}

type Request struct {
	Data         map[string]any `json:"data"`
	Template     string         `json:"template"`
	TemplatePath string         `json:"template_path,omitempty"`
	Destination  string         `json:"destination,omitempty"`
	Bucket       string         `json:"bucket,omitempty"`
}

// Result holds the rendered document. Bytes is empty when the service only
// uploaded the artifact itself and reported its key.
type Result struct {
	Bytes       []byte
	Format      string
	ContentType string
	UploadedKey string
}

// envelope is the JSON response shape. Services disagree on the field name for
// the base64 payload.
type envelope struct {
	File        string `json:"file"`
	Content     string `json:"content"`
	Data        string `json:"data"`
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Key         string `json:"key"`
	Destination string `json:"destination"`
	Error       string `json:"error"`
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing RENDER_SERVICE_URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &client{
		log:        log.With("client", "RenderClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *client) Render(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &formation.RenderingServiceError{Err: fmt.Errorf("encode request: %w", err)}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, &formation.RenderingServiceError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn("Render request failed", "template", req.TemplatePath, "error", err)
		return nil, &formation.RenderingServiceError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &formation.RenderingServiceError{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("Render service returned error",
			"status", resp.StatusCode,
			"template", req.TemplatePath,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, &formation.RenderingServiceError{
			Status: resp.StatusCode,
			Body:   httpx.TruncateBody(raw),
			Err:    &httpx.StatusError{Service: "render", StatusCode: resp.StatusCode, Body: httpx.TruncateBody(raw)},
		}
	}

	out, err := decodeResponse(resp.Header.Get("Content-Type"), raw)
	if err != nil {
		return nil, &formation.RenderingServiceError{Status: resp.StatusCode, Body: httpx.TruncateBody(raw), Err: err}
	}
	c.log.Debug("Render complete",
		"template", req.TemplatePath,
		"format", out.Format,
		"bytes", len(out.Bytes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// decodeResponse accepts raw document bytes or a JSON envelope carrying base64.
func decodeResponse(contentType string, raw []byte) (*Result, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	trimmed := bytes.TrimSpace(raw)
	if mediaType == "application/json" || (mediaType == "" && len(trimmed) > 0 && trimmed[0] == '{') {
		return decodeEnvelope(trimmed)
	}
	if len(raw) == 0 {
		return nil, errors.New("empty response body")
	}
	format := FormatFromContentType(mediaType)
	if format == "" {
		format = SniffFormat(raw)
	}
	return &Result{Bytes: raw, Format: format, ContentType: ContentTypeFor(format)}, nil
}

func decodeEnvelope(raw []byte) (*Result, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if strings.TrimSpace(env.Error) != "" {
		return nil, fmt.Errorf("render service: %s", env.Error)
	}
	payload := firstNonEmpty(env.File, env.Content, env.Data)
	key := firstNonEmpty(env.Key, env.Destination)

	out := &Result{UploadedKey: key}
	if payload != "" {
		b, err := decodeBase64(payload)
		if err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		out.Bytes = b
	}
	if len(out.Bytes) == 0 && key == "" {
		return nil, errors.New("envelope has neither content nor key")
	}

	out.Format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(env.Format), "."))
	if out.Format == "" {
		out.Format = FormatFromContentType(env.ContentType)
	}
	if out.Format == "" && len(out.Bytes) > 0 {
		out.Format = SniffFormat(out.Bytes)
	}
	if out.Format == "" && key != "" {
		if i := strings.LastIndex(key, "."); i >= 0 {
			out.Format = strings.ToLower(key[i+1:])
		}
	}
	out.ContentType = ContentTypeFor(out.Format)
	return out, nil
}

// decodeBase64 accepts standard or URL alphabets, padded or not, and strips a
// data: URL prefix.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("invalid base64")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

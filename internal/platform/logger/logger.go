package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Logger wraps a sugared zap logger and scrubs party PII out of key/value pairs
// before they are written. Its method set also satisfies the Temporal SDK log
// interface, so the worker and client share it.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zl.Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, scrub(keysAndValues)...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, scrub(keysAndValues)...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, scrub(keysAndValues)...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, scrub(keysAndValues)...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, scrub(keysAndValues)...)
}

func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(scrub(keysAndValues)...)}
}

// Named scopes the logger to a component ("worker", "vault", ...).
func (l *Logger) Named(name string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.Named(name)}
}

// redactor decides per key whether a value is dropped, hashed or passed through.
type redactor struct {
	enabled bool
	salt    string
	redact  []string
	exact   map[string]bool
	hash    []string
}

var (
	activeOnce sync.Once
	active     *redactor
)

func current() *redactor {
	activeOnce.Do(func() {
		active = newRedactor(os.Getenv("LOG_REDACTION_ENABLED"), os.Getenv("LOG_HASH_SALT"))
	})
	return active
}

func newRedactor(enabledRaw, salt string) *redactor {
	r := &redactor{
		enabled: true,
		salt:    strings.TrimSpace(salt),
		redact: []string{
			"token", "authorization", "password", "secret", "cookie", "api_key", "apikey",
			"email", "phone", "tax_id", "tax id", "ssn", "date_of_birth", "dob",
		},
		exact: map[string]bool{"ein": true, "itin": true},
		hash:  []string{"user_id", "requester_id", "session_id"},
	}
	switch strings.ToLower(strings.TrimSpace(enabledRaw)) {
	case "0", "false", "no", "off":
		r.enabled = false
	}
	return r
}

func scrub(kv []interface{}) []interface{} {
	return current().kvs(kv)
}

func (r *redactor) kvs(kv []interface{}) []interface{} {
	if len(kv) == 0 || !r.enabled {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		name := toString(kv[i])
		out = append(out, name, r.value(normalizeKey(name), kv[i+1]))
	}
	return out
}

func (r *redactor) value(key string, val interface{}) interface{} {
	switch {
	case key == "":
	case r.exact[key] || containsAny(key, r.redact):
		return "[REDACTED]"
	case containsAny(key, r.hash):
		return r.digest(val)
	}
	switch v := val.(type) {
	case map[string]interface{}:
		if v == nil {
			return nil
		}
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = r.value(normalizeKey(k), inner)
		}
		return out
	case []interface{}:
		if v == nil {
			return nil
		}
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = r.value("", inner)
		}
		return out
	case string:
		if looksLikeJWT(v) {
			return "[REDACTED]"
		}
	}
	return val
}

func (r *redactor) digest(val interface{}) string {
	raw := toString(val)
	if raw == "" {
		return ""
	}
	h := sha256.New()
	_, _ = h.Write([]byte(r.salt))
	_, _ = h.Write([]byte(raw))
	return "hash:" + hex.EncodeToString(h.Sum(nil))[:12]
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func containsAny(key string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(key, n) {
			return true
		}
	}
	return false
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

package app

import (
	"fmt"

	"github.com/yungbote/formationvault-backend/internal/clients/convert"
	"github.com/yungbote/formationvault-backend/internal/clients/crm"
	redisclient "github.com/yungbote/formationvault-backend/internal/clients/redis"
	"github.com/yungbote/formationvault-backend/internal/clients/render"
	"github.com/yungbote/formationvault-backend/internal/platform/envutil"
	"github.com/yungbote/formationvault-backend/internal/platform/gcp"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

type Clients struct {
	Records     crm.RecordStore
	Renderer    render.Client
	Converter   convert.Converter
	Bucket      gcp.BucketService
	AuditStream redisclient.AuditStream
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	records, err := crm.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init crm client: %w", err)
	}
	renderer, err := render.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init render client: %w", err)
	}
	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		return Clients{}, err
	}

	var converters []convert.Converter
	if cfg.ConvertServiceURL != "" {
		converters = append(converters, convert.NewOfficeConverter(log, cfg.ConvertServiceURL, cfg.ConvertTimeout))
	}
	if cfg.HTMLConvertEnabled {
		converters = append(converters, convert.NewHTMLConverter(log, cfg.ChromiumPath, cfg.ConvertTimeout))
	}
	var converter convert.Converter
	if len(converters) > 0 {
		converter = convert.NewChain(log, converters...)
	} else {
		log.Warn("No format converters configured; documents are stored as rendered")
	}

	// Redis only mirrors the audit trail, so it stays optional.
	var stream redisclient.AuditStream
	if envutil.String("REDIS_ADDR", "") != "" {
		s, err := redisclient.NewAuditStream(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis audit stream: %w", err)
		}
		stream = s
	}

	return Clients{
		Records:     records,
		Renderer:    renderer,
		Converter:   converter,
		Bucket:      bucket,
		AuditStream: stream,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.AuditStream != nil {
		_ = c.AuditStream.Close()
	}
}

// Package convert turns rendered documents into fixed-layout PDFs. Every
// converter is optional: callers treat a failure as "keep the original".
package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/formationvault-backend/internal/domain/formation"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

type Input struct {
	FileName string
	From     string
	To       string
	Bytes    []byte
}

type Converter interface {
	Supports(from, to string) bool
	Convert(ctx context.Context, in Input) ([]byte, error)
}

// Chain dispatches to the first converter supporting the requested pair.
type Chain struct {
	log        *logger.Logger
	converters []Converter
}

func NewChain(log *logger.Logger, converters ...Converter) *Chain {
	kept := make([]Converter, 0, len(converters))
	for _, c := range converters {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &Chain{log: log.With("service", "ConvertChain"), converters: kept}
}

func (c *Chain) Supports(from, to string) bool {
	if c == nil {
		return false
	}
	from, to = normalizeFormat(from), normalizeFormat(to)
	for _, conv := range c.converters {
		if conv.Supports(from, to) {
			return true
		}
	}
	return false
}

// Convert returns an error wrapping formation.ErrConversionFailed when no
// converter can handle the pair or every candidate fails.
func (c *Chain) Convert(ctx context.Context, in Input) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("no converters: %w", formation.ErrConversionFailed)
	}
	in.From, in.To = normalizeFormat(in.From), normalizeFormat(in.To)
	if len(in.Bytes) == 0 {
		return nil, fmt.Errorf("empty input: %w", formation.ErrConversionFailed)
	}
	var errs []error
	for _, conv := range c.converters {
		if !conv.Supports(in.From, in.To) {
			continue
		}
		out, err := conv.Convert(ctx, in)
		if err == nil && len(out) > 0 {
			return out, nil
		}
		if err == nil {
			err = errors.New("converter returned no bytes")
		}
		c.log.Warn("Conversion attempt failed", "from", in.From, "to", in.To, "file", in.FileName, "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%s to %s unsupported: %w", in.From, in.To, formation.ErrConversionFailed)
	}
	return nil, fmt.Errorf("%w: %w", formation.ErrConversionFailed, errors.Join(errs...))
}

func normalizeFormat(f string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
}

package formation

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound        = errors.New("record not found")
	ErrUnsupportedEntityKind = errors.New("document kind does not apply to entity kind")
	ErrUnknownDocumentKind   = errors.New("unknown document kind")
	ErrTemplateMissing       = errors.New("no template matches party counts")
	ErrConversionFailed      = errors.New("format conversion failed")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrUnauthorized          = errors.New("not authorized for document")
	ErrInvalidPath           = errors.New("invalid document path")
	ErrMetadataSyncFailed    = errors.New("metadata sync failed")
	ErrInvalidArtifact       = errors.New("invalid document artifact")
	ErrVaultConflict         = errors.New("vault path already in use")
)

// RenderingServiceError carries the upstream status and body of a failed render call.
// Status is 0 when the call never produced a response (timeout, connection refused).
type RenderingServiceError struct {
	Status int
	Body   string
	Err    error
}

func (e *RenderingServiceError) Error() string {
	if e == nil {
		return "rendering service error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("rendering service error: %v", e.Err)
	}
	return fmt.Sprintf("rendering service error: status=%d body=%s", e.Status, e.Body)
}

func (e *RenderingServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsValidationError reports errors caused by the record's data rather than by
// an unavailable downstream service.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnsupportedEntityKind) ||
		errors.Is(err, ErrUnknownDocumentKind) ||
		errors.Is(err, ErrTemplateMissing) ||
		errors.Is(err, ErrInvalidArtifact)
}

func IsRenderingError(err error) bool {
	var re *RenderingServiceError
	return errors.As(err, &re)
}

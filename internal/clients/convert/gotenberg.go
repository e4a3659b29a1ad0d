package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/yungbote/formationvault-backend/internal/platform/ctxutil"
	"github.com/yungbote/formationvault-backend/internal/platform/httpx"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

// OfficeConverter posts office documents to a Gotenberg-compatible
// LibreOffice endpoint.
type OfficeConverter struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewOfficeConverter(log *logger.Logger, baseURL string, timeout time.Duration) *OfficeConverter {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OfficeConverter{
		log:        log.With("client", "OfficeConverter"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (o *OfficeConverter) Supports(from, to string) bool {
	if o == nil || to != "pdf" {
		return false
	}
	switch from {
	case "docx", "doc", "odt", "rtf":
		return true
	default:
		return false
	}
}

func (o *OfficeConverter) Convert(ctx context.Context, in Input) ([]byte, error) {
	name := strings.TrimSpace(in.FileName)
	if name == "" {
		name = "document"
	}
	name = strings.TrimSuffix(path.Base(name), path.Ext(name)) + "." + in.From

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(in.Bytes); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodPost, o.baseURL+"/forms/libreoffice/convert", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpx.StatusError{Service: "convert", StatusCode: resp.StatusCode, Body: httpx.TruncateBody(raw)}
	}
	if !bytes.HasPrefix(raw, []byte("%PDF-")) {
		return nil, fmt.Errorf("convert: response is not a pdf (%d bytes)", len(raw))
	}
	return raw, nil
}

package render

import (
	"bytes"
	"mime"
	"strings"
)

const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatHTML = "html"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func FormatFromContentType(ct string) string {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(ct))
	}
	switch mediaType {
	case "application/pdf":
		return FormatPDF
	case docxContentType:
		return FormatDOCX
	case "text/html":
		return FormatHTML
	default:
		return ""
	}
}

func ContentTypeFor(format string) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return docxContentType
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// SniffFormat recognises the formats the render service is known to emit.
// Any zip container is assumed to be docx.
func SniffFormat(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte("%PDF-")):
		return FormatPDF
	case bytes.HasPrefix(b, []byte("PK\x03\x04")):
		return FormatDOCX
	}
	head := strings.ToLower(strings.TrimSpace(string(b[:min(len(b), 512)])))
	if strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") {
		return FormatHTML
	}
	return ""
}

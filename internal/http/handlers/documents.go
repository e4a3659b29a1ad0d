package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formationvault-backend/internal/http/response"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
	"github.com/yungbote/formationvault-backend/internal/services"
)

const maxSignedUploadBytes = 25 << 20

type DocumentHandler struct {
	log    *logger.Logger
	access services.DocumentAccessService
}

func NewDocumentHandler(log *logger.Logger, access services.DocumentAccessService) *DocumentHandler {
	return &DocumentHandler{log: log.With("handler", "DocumentHandler"), access: access}
}

// GET /api/documents?companyId=
func (h *DocumentHandler) List(c *gin.Context) {
	who, ok := currentRequester(c)
	if !ok {
		return
	}
	userID := who.UserID
	if who.Privileged && c.Query("userId") != "" {
		userID = c.Query("userId")
	}
	docs, err := h.access.ListDocuments(c.Request.Context(), userID, c.Query("companyId"))
	if err != nil {
		response.RespondDomainError(c, "list_documents_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"documents": docs})
}

// GET /api/documents/:documentId/view?companyId=&download=
func (h *DocumentHandler) View(c *gin.Context) {
	h.serve(c, services.DocumentRef{DocumentID: c.Param("documentId")})
}

// GET /api/documents/view?key=
func (h *DocumentHandler) ViewByKey(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_path", errors.New("key is required"))
		return
	}
	h.serve(c, services.DocumentRef{StorageKey: key})
}

func (h *DocumentHandler) serve(c *gin.Context, ref services.DocumentRef) {
	who, ok := currentRequester(c)
	if !ok {
		return
	}
	view, err := h.access.Open(c.Request.Context(), services.ViewRequest{
		RequesterID:  who.UserID,
		Privileged:   who.Privileged,
		Ref:          ref,
		CompanyID:    strings.TrimSpace(c.Query("companyId")),
		KeepOriginal: queryBool(c, "original"),
	})
	if err != nil {
		response.RespondDomainError(c, "document_read_failed", err)
		return
	}
	disposition := "inline"
	if queryBool(c, "download") {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, view.FileName))
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, view.ContentType, view.Body)
}

// POST /api/documents/:documentId/signed?companyId=
func (h *DocumentHandler) UploadSigned(c *gin.Context) {
	who, ok := currentRequester(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSignedUploadBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	if fh.Size > maxSignedUploadBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("signed document exceeds %d bytes", maxSignedUploadBytes))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	defer f.Close()
	body, err := io.ReadAll(io.LimitReader(f, maxSignedUploadBytes))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}

	entry, err := h.access.AttachSigned(c.Request.Context(), services.SignedUpload{
		RequesterID: who.UserID,
		Privileged:  who.Privileged,
		OwnerID:     strings.TrimSpace(c.PostForm("userId")),
		CompanyID:   strings.TrimSpace(c.Query("companyId")),
		DocumentID:  c.Param("documentId"),
		Body:        body,
	})
	if err != nil {
		response.RespondDomainError(c, "attach_signed_failed", err)
		return
	}
	h.log.Info("Signed document attached", "document_id", entry.DocumentID, "company_id", entry.CompanyID, "requester_id", who.UserID)
	response.RespondOK(c, gin.H{"document": entry})
}

package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formationvault-backend/internal/http/response"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
	"github.com/yungbote/formationvault-backend/internal/services"
)

const maxGenerateTimeout = 10 * time.Minute

type FormationHandler struct {
	log        *logger.Logger
	generation services.GenerationService
	dispatcher services.BundleDispatcher
}

func NewFormationHandler(log *logger.Logger, generation services.GenerationService, dispatcher services.BundleDispatcher) *FormationHandler {
	return &FormationHandler{
		log:        log.With("handler", "FormationHandler"),
		generation: generation,
		dispatcher: dispatcher,
	}
}

type generateBody struct {
	UserID               string   `json:"userId"`
	UpdateExternalRecord *bool    `json:"updateExternalRecord"`
	TimeoutSeconds       int      `json:"timeoutSeconds"`
	DocumentKinds        []string `json:"documentKinds"`
}

func (b generateBody) updateExternal() bool {
	return b.UpdateExternalRecord == nil || *b.UpdateExternalRecord
}

// bindOptional accepts an empty body.
func bindOptional(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return false
	}
	return true
}

// POST /api/formation/records/:recordId/documents/:documentKind/generate
func (h *FormationHandler) Generate(c *gin.Context) {
	var body generateBody
	if !bindOptional(c, &body) {
		return
	}
	timeout := time.Duration(body.TimeoutSeconds) * time.Second
	if timeout > maxGenerateTimeout {
		timeout = maxGenerateTimeout
	}
	res, err := h.generation.Generate(c.Request.Context(), services.GenerationRequest{
		RecordID:             c.Param("recordId"),
		DocumentKind:         c.Param("documentKind"),
		UserID:               strings.TrimSpace(body.UserID),
		UpdateExternalRecord: body.updateExternal(),
		Timeout:              timeout,
	})
	if err != nil {
		response.RespondDomainError(c, "generation_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"document": res})
}

// POST /api/formation/records/:recordId/bundle
func (h *FormationHandler) Bundle(c *gin.Context) {
	var body generateBody
	if !bindOptional(c, &body) {
		return
	}
	res, err := h.generation.GenerateBundle(c.Request.Context(), services.BundleRequest{
		RecordID:             c.Param("recordId"),
		UserID:               strings.TrimSpace(body.UserID),
		UpdateExternalRecord: body.updateExternal(),
		DocumentKinds:        body.DocumentKinds,
	})
	if err != nil {
		response.RespondDomainError(c, "bundle_failed", err)
		return
	}
	status := http.StatusOK
	if n := res.Failed(); n > 0 && n == len(res.Items) {
		status = http.StatusBadGateway
	} else if n > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{"bundle": res})
}

type paymentCompletedBody struct {
	RecordID      string   `json:"recordId" binding:"required"`
	UserID        string   `json:"userId"`
	DocumentKinds []string `json:"documentKinds"`
}

// POST /api/webhooks/payment-completed
func (h *FormationHandler) PaymentCompleted(c *gin.Context) {
	var body paymentCompletedBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	runID, err := h.dispatcher.Dispatch(c.Request.Context(), services.BundleRequest{
		RecordID:             strings.TrimSpace(body.RecordID),
		UserID:               strings.TrimSpace(body.UserID),
		UpdateExternalRecord: true,
		DocumentKinds:        body.DocumentKinds,
	})
	if err != nil {
		h.log.Warn("Payment webhook dispatch failed", "record_id", body.RecordID, "error", err)
		response.RespondDomainError(c, "dispatch_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"runId": runID, "recordId": body.RecordID})
}

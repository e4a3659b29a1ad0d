package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formationvault-backend/internal/http/response"
	"github.com/yungbote/formationvault-backend/internal/services"
)

type VaultHandler struct {
	vaults services.VaultService
}

func NewVaultHandler(vaults services.VaultService) *VaultHandler {
	return &VaultHandler{vaults: vaults}
}

type createVaultBody struct {
	UserID      string `json:"userId"`
	CompanyID   string `json:"companyId" binding:"required"`
	CompanyName string `json:"companyName"`
	RecordID    string `json:"recordId"`
}

// POST /api/vaults
func (h *VaultHandler) Create(c *gin.Context) {
	who, ok := currentRequester(c)
	if !ok {
		return
	}
	var body createVaultBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "invalid_input", err)
		return
	}
	owner := who.UserID
	if who.Privileged && strings.TrimSpace(body.UserID) != "" {
		owner = strings.TrimSpace(body.UserID)
	} else if body.UserID != "" && body.UserID != who.UserID {
		response.RespondError(c, http.StatusForbidden, "unauthorized", errors.New("cannot create a vault for another user"))
		return
	}
	// Binding a vault to a CRM record rewrites that record; staff only.
	if !who.Privileged && strings.TrimSpace(body.RecordID) != "" {
		response.RespondError(c, http.StatusForbidden, "unauthorized", errors.New("only staff may bind a vault to a record"))
		return
	}
	vaultPath, err := h.vaults.CreateVault(c.Request.Context(), services.CreateVaultRequest{
		UserID:      owner,
		CompanyID:   body.CompanyID,
		CompanyName: body.CompanyName,
		RecordID:    strings.TrimSpace(body.RecordID),
	})
	if err != nil {
		response.RespondDomainError(c, "create_vault_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"vaultPath": vaultPath})
}

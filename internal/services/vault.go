package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/yungbote/formationvault-backend/internal/clients/crm"
	"github.com/yungbote/formationvault-backend/internal/data/repos"
	"github.com/yungbote/formationvault-backend/internal/domain/formation"
	"github.com/yungbote/formationvault-backend/internal/domain/vault"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

const (
	vaultRoot       = "vaults"
	unassignedOwner = "unassigned"
	maxSlugLen      = 48
)

type CreateVaultRequest struct {
	UserID      string `json:"user_id"`
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	// RecordID, when set, receives the vault path on its "Vault Path" field.
	RecordID string `json:"record_id,omitempty"`
	// VaultPath adopts an existing path instead of deriving one.
	VaultPath string `json:"vault_path,omitempty"`
}

type VaultService interface {
	CreateVault(ctx context.Context, req CreateVaultRequest) (string, error)
	// VaultPathFor has no side effects: record value, then stored vault, then
	// the derived path.
	VaultPathFor(ctx context.Context, rec *formation.SourceRecord, userID string) (string, error)
	VaultPaths(ctx context.Context, userID string) ([]string, error)
}

type vaultService struct {
	log     *logger.Logger
	vaults  repos.CompanyVaultRepo
	records crm.RecordStore
}

func NewVaultService(baseLog *logger.Logger, vaults repos.CompanyVaultRepo, records crm.RecordStore) VaultService {
	return &vaultService{
		log:     baseLog.With("service", "VaultService"),
		vaults:  vaults,
		records: records,
	}
}

func (vs *vaultService) CreateVault(ctx context.Context, req CreateVaultRequest) (string, error) {
	req.UserID = ownerOrUnassigned(req.UserID)
	req.CompanyID = strings.TrimSpace(req.CompanyID)
	if req.CompanyID == "" {
		return "", fmt.Errorf("create vault: company id required")
	}
	existing, err := vs.vaults.GetByCompany(ctx, nil, req.UserID, req.CompanyID)
	if err != nil {
		return "", fmt.Errorf("lookup vault: %w", err)
	}
	if existing != nil {
		return existing.VaultPath, nil
	}
	if err := vs.checkRecordOwner(ctx, req); err != nil {
		return "", err
	}

	vaultPath := strings.TrimSpace(req.VaultPath)
	if vaultPath == "" {
		vaultPath = DeriveVaultPath(req.UserID, req.CompanyID, req.CompanyName)
	}
	stored, err := vs.vaults.CreateIfAbsent(ctx, nil, &vault.VaultRecord{
		UserID:      req.UserID,
		CompanyID:   req.CompanyID,
		CompanyName: strings.TrimSpace(req.CompanyName),
		VaultPath:   vaultPath,
	})
	if errors.Is(err, repos.ErrConflict) {
		return "", fmt.Errorf("create vault %s: %w: %w", vaultPath, formation.ErrVaultConflict, err)
	}
	if err != nil {
		return "", fmt.Errorf("create vault: %w", err)
	}
	vs.log.Info("Vault created", "user_id", req.UserID, "company_id", req.CompanyID, "vault_path", stored.VaultPath)

	if req.RecordID != "" && vs.records != nil {
		if err := vs.records.Update(ctx, req.RecordID, map[string]any{formation.FieldVaultPath: stored.VaultPath}); err != nil {
			vs.log.Warn("Failed to push vault path to CRM", "error", err, "record_id", req.RecordID)
		}
	}
	return stored.VaultPath, nil
}

// checkRecordOwner refuses to bind a vault to a record that belongs to another
// user or company, or that already carries a vault path.
func (vs *vaultService) checkRecordOwner(ctx context.Context, req CreateVaultRequest) error {
	if strings.TrimSpace(req.RecordID) == "" || vs.records == nil {
		return nil
	}
	rec, err := vs.records.Fetch(ctx, req.RecordID)
	if err != nil {
		return fmt.Errorf("create vault: fetch record %s: %w", req.RecordID, err)
	}
	if rec.CompanyID != "" && rec.CompanyID != req.CompanyID {
		return fmt.Errorf("record %s belongs to another company: %w", req.RecordID, formation.ErrUnauthorized)
	}
	if rec.UserID != "" && rec.UserID != req.UserID {
		return fmt.Errorf("record %s belongs to another user: %w", req.RecordID, formation.ErrUnauthorized)
	}
	if p := strings.Trim(strings.TrimSpace(rec.VaultPath), "/"); p != "" && p != strings.Trim(strings.TrimSpace(req.VaultPath), "/") {
		return fmt.Errorf("record %s already has vault path %s: %w", req.RecordID, p, formation.ErrUnauthorized)
	}
	return nil
}

func (vs *vaultService) VaultPathFor(ctx context.Context, rec *formation.SourceRecord, userID string) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("vault path: nil record")
	}
	if p := strings.Trim(strings.TrimSpace(rec.VaultPath), "/"); p != "" {
		return p, nil
	}
	owner := ownerOrUnassigned(userID)
	existing, err := vs.vaults.GetByCompany(ctx, nil, owner, rec.CompanyID)
	if err != nil {
		return "", fmt.Errorf("lookup vault: %w", err)
	}
	if existing != nil {
		return existing.VaultPath, nil
	}
	return DeriveVaultPath(owner, rec.CompanyID, rec.CompanyName), nil
}

func (vs *vaultService) VaultPaths(ctx context.Context, userID string) ([]string, error) {
	recs, err := vs.vaults.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.VaultPath)
	}
	return out, nil
}

// DeriveVaultPath builds vaults/{user}/{slug}-{suffix}. The suffix hashes the
// company id so two companies with the same name never share a namespace.
func DeriveVaultPath(userID, companyID, companyName string) string {
	sum := sha256.Sum256([]byte(ownerOrUnassigned(userID) + "|" + strings.TrimSpace(companyID)))
	suffix := hex.EncodeToString(sum[:])[:8]
	return path.Join(vaultRoot, pathSafe(ownerOrUnassigned(userID)), slugify(companyName)+"-"+suffix)
}

// StorageKey is {vaultPath}/{segment}/{company}-{Title}.{ext}.
func StorageKey(vaultPath string, doc formation.DocumentKind, companyName, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	name := SanitizeCompanyName(companyName) + "-" + doc.FileTitle() + "." + ext
	return path.Join(strings.Trim(vaultPath, "/"), doc.Kind.Segment(), name)
}

// SanitizeCompanyName keeps letters, digits and dots; everything else
// collapses to a single dash.
func SanitizeCompanyName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "Company"
	}
	return out
}

func slugify(name string) string {
	s := strings.ToLower(SanitizeCompanyName(name))
	s = strings.ReplaceAll(s, ".", "")
	if r := []rune(s); len(r) > maxSlugLen {
		s = strings.TrimRight(string(r[:maxSlugLen]), "-")
	}
	return s
}

func pathSafe(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
}

func ownerOrUnassigned(userID string) string {
	if u := strings.TrimSpace(userID); u != "" {
		return u
	}
	return unassignedOwner
}

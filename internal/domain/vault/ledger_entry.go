package vault

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentStatus string

const (
	StatusTemplate  DocumentStatus = "template"
	StatusGenerated DocumentStatus = "generated"
	StatusSigned    DocumentStatus = "signed"
)

// LedgerEntry is one logical document in a user's per-company document ledger.
// The ledger is the index access control is decided from.
type LedgerEntry struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           string         `gorm:"column:user_id;not null;uniqueIndex:idx_ledger_user_company_doc,priority:1;index" json:"user_id"`
	CompanyID        string         `gorm:"column:company_id;not null;uniqueIndex:idx_ledger_user_company_doc,priority:2" json:"company_id"`
	DocumentID       string         `gorm:"column:document_id;not null;uniqueIndex:idx_ledger_user_company_doc,priority:3" json:"document_id"`
	Name             string         `gorm:"column:name;not null" json:"name"`
	Kind             string         `gorm:"column:kind;not null;index" json:"kind"`
	StorageKey       string         `gorm:"column:storage_key;index" json:"storage_key"`
	SignedStorageKey string         `gorm:"column:signed_storage_key;index" json:"signed_storage_key,omitempty"`
	Format           string         `gorm:"column:format" json:"format,omitempty"`
	SizeBytes        int64          `gorm:"column:size_bytes" json:"size_bytes,omitempty"`
	TemplateID       string         `gorm:"column:template_id" json:"template_id,omitempty"`
	Status           DocumentStatus `gorm:"column:status;not null;index" json:"status"`
	SignedAt         *time.Time     `gorm:"column:signed_at" json:"signed_at,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (LedgerEntry) TableName() string { return "document_ledger_entry" }

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// EffectiveKey is the key served for this entry: the countersigned artifact
// when one exists, the generated one otherwise.
func (e *LedgerEntry) EffectiveKey() string {
	if e == nil {
		return ""
	}
	if k := strings.TrimSpace(e.SignedStorageKey); k != "" {
		return k
	}
	return strings.TrimSpace(e.StorageKey)
}

// References reports whether key is either of the entry's artifact keys.
func (e *LedgerEntry) References(key string) bool {
	if e == nil || key == "" {
		return false
	}
	return e.StorageKey == key || e.SignedStorageKey == key
}

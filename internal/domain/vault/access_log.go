package vault

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AccessOutcome string

const (
	AccessServed       AccessOutcome = "served"
	AccessNotFound     AccessOutcome = "not_found"
	AccessUnauthorized AccessOutcome = "unauthorized"
	AccessInvalidPath  AccessOutcome = "invalid_path"
	AccessError        AccessOutcome = "error"
)

// AccessLog is append-only. Rows are never updated or deleted.
type AccessLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID string         `gorm:"column:requester_id;not null;index" json:"requester_id"`
	Privileged  bool           `gorm:"column:privileged;not null" json:"privileged"`
	CompanyID   string         `gorm:"column:company_id;index" json:"company_id,omitempty"`
	DocumentRef string         `gorm:"column:document_ref" json:"document_ref"`
	ResolvedKey string         `gorm:"column:resolved_key;index" json:"resolved_key,omitempty"`
	Outcome     AccessOutcome  `gorm:"column:outcome;not null;index" json:"outcome"`
	Format      string         `gorm:"column:format" json:"format,omitempty"`
	RequestID   string         `gorm:"column:request_id" json:"request_id,omitempty"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AccessLog) TableName() string { return "document_access_log" }

func (a *AccessLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}

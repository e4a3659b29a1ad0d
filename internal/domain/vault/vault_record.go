package vault

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VaultRecord pins a company's storage namespace. VaultPath is never renamed.
type VaultRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string    `gorm:"column:user_id;not null;uniqueIndex:idx_vault_user_company,priority:1" json:"user_id"`
	CompanyID   string    `gorm:"column:company_id;not null;uniqueIndex:idx_vault_user_company,priority:2" json:"company_id"`
	CompanyName string    `gorm:"column:company_name;not null" json:"company_name"`
	VaultPath   string    `gorm:"column:vault_path;not null;uniqueIndex" json:"vault_path"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (VaultRecord) TableName() string { return "company_vault" }

func (v *VaultRecord) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

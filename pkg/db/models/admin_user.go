package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopfronthq/shopfront-backend/pkg/enums"
)

// AdminUser is a back-office operator account.
type AdminUser struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Email        string          `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	FirstName    string          `gorm:"column:first_name;not null"`
	LastName     string          `gorm:"column:last_name;not null"`
	Role         enums.AdminRole `gorm:"column:role;type:admin_role;not null;default:'staff'"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
)

// AdminUserDTO is the transport shape that omits the credential hash.
type AdminUserDTO struct {
	ID          uuid.UUID       `json:"id"`
	Email       string          `json:"email"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Role        enums.AdminRole `json:"role"`
	IsActive    bool            `json:"is_active"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FromModel maps a persisted admin user to its transport shape.
func FromModel(user *models.AdminUser) *AdminUserDTO {
	if user == nil {
		return nil
	}
	return &AdminUserDTO{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// CreateAdminUserDTO holds the data required to persist a new admin user.
type CreateAdminUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         enums.AdminRole
}

// ToModel converts the DTO into a model ready for insertion.
func (d CreateAdminUserDTO) ToModel() *models.AdminUser {
	role := d.Role
	if role == "" {
		role = enums.AdminRoleStaff
	}
	return &models.AdminUser{
		ID:           uuid.New(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Role:         role,
		IsActive:     true,
	}
}

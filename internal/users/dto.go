package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
)

// UserDTO is the API shape of one account.
type UserDTO struct {
	ID          uuid.UUID        `json:"id"`
	Email       string           `json:"email"`
	Username    string           `json:"username"`
	SystemRole  enums.SystemRole `json:"system_role"`
	IsActive    bool             `json:"is_active"`
	LastLoginAt *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ToDTO converts the model row.
func ToDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		SystemRole:  enums.SystemRole(user.SystemRole),
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// CreateUserInput captures a new account request.
type CreateUserInput struct {
	Email      string
	Username   string
	Password   string
	SystemRole enums.SystemRole
}

// UpdateUserInput patches account fields. Nil fields are left untouched.
type UpdateUserInput struct {
	Username   *string
	SystemRole *enums.SystemRole
	IsActive   *bool
	Password   *string
}

// ListSort names the supported orderings.
type ListSort string

const (
	SortCreatedDesc  ListSort = "created_desc"
	SortCreatedAsc   ListSort = "created_asc"
	SortUsernameAsc  ListSort = "username_asc"
	SortUsernameDesc ListSort = "username_desc"
	SortEmailAsc     ListSort = "email_asc"
)

package auth

import "github.com/zaikoworks/zaiko-backend/internal/users"

// LoginInput captures credential submission.
type LoginInput struct {
	Email    string
	Password string
}

// TokenPairDTO is returned on login and refresh.
type TokenPairDTO struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         users.UserDTO `json:"user"`
}

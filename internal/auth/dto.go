// File: internal/auth/dto.go
package auth

import (
	"strings"

	"engla_backend/internal/common"
)

// LoginRequest is the body of POST /authentication/login. Fields are
// normalized before validation: email is trimmed and lowercased, names are
// trimmed and capitalization-formatted.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"firstName" validate:"omitempty,min=1,max=50,personname"`
	LastName  string `json:"lastName" validate:"omitempty,min=1,max=50,personname"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,max=2048,httpsurl"`
}

// Normalize applies the transforms that precede validation.
func (r *LoginRequest) Normalize() {
	r.Email = common.NormalizeEmail(r.Email)
	r.FirstName = common.FormatName(r.FirstName)
	r.LastName = common.FormatName(r.LastName)
	r.AvatarURL = strings.TrimSpace(r.AvatarURL)
}

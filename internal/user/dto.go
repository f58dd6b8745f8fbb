// File: internal/user/dto.go
package user

import (
	"strings"

	"engla_backend/internal/common"
)

// UpdateProfileRequest is the body of PATCH /users/me. All fields are
// optional; absent fields are left untouched.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=50,personname"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=50,personname"`
	Phone     *string `json:"phone" validate:"omitempty,e164"`
	Language  *string `json:"language" validate:"omitempty,bcp47_language_tag"`
	Currency  *string `json:"currency" validate:"omitempty,iso4217"`
}

// Normalize applies the transforms that precede validation.
func (r *UpdateProfileRequest) Normalize() {
	if r.FirstName != nil {
		formatted := common.FormatName(*r.FirstName)
		r.FirstName = &formatted
	}
	if r.LastName != nil {
		formatted := common.FormatName(*r.LastName)
		r.LastName = &formatted
	}
	if r.Phone != nil {
		trimmed := strings.TrimSpace(*r.Phone)
		r.Phone = &trimmed
	}
	if r.Currency != nil {
		upper := strings.ToUpper(strings.TrimSpace(*r.Currency))
		r.Currency = &upper
	}
	if r.Language != nil {
		lower := strings.ToLower(strings.TrimSpace(*r.Language))
		r.Language = &lower
	}
}

// Fields returns the column map for the persistence update.
func (r *UpdateProfileRequest) Fields() map[string]any {
	fields := map[string]any{}
	if r.FirstName != nil {
		fields["first_name"] = *r.FirstName
	}
	if r.LastName != nil {
		fields["last_name"] = *r.LastName
	}
	if r.Phone != nil {
		fields["phone"] = *r.Phone
	}
	if r.Language != nil {
		fields["language"] = *r.Language
	}
	if r.Currency != nil {
		fields["currency"] = *r.Currency
	}
	return fields
}

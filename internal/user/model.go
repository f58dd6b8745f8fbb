// File: internal/user/model.go
package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"engla_backend/internal/common"
)

// User represents the user model in the database. Identity is owned by the
// external provider: SubjectID is the provider-issued stable identifier and
// no credentials are stored locally.
type User struct {
	common.BaseModel
	SubjectID string  `gorm:"type:varchar(255);not null;uniqueIndex"`
	Email     string  `gorm:"type:varchar(255);not null;uniqueIndex"`
	FirstName *string `gorm:"type:varchar(100)"`
	LastName  *string `gorm:"type:varchar(100)"`
	AvatarURL *string `gorm:"type:text"`
	Phone     *string `gorm:"type:varchar(50)"`

	Role       string `gorm:"type:varchar(50);not null;default:'client'"`
	IsVerified bool   `gorm:"not null;default:false"`
	Language   string `gorm:"type:varchar(10);not null;default:'en'"`
	Currency   string `gorm:"type:varchar(3);not null;default:'GBP'"`

	StripeAccountID           *string `gorm:"type:varchar(255)"`
	StripeOnboardingCompleted bool    `gorm:"not null;default:false"`

	// Soft delete; GORM excludes deleted rows from default queries.
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// Response is the safe client-facing view of a user record.
type Response struct {
	ID                        uuid.UUID `json:"id"`
	Email                     string    `json:"email"`
	FirstName                 *string   `json:"firstName,omitempty"`
	LastName                  *string   `json:"lastName,omitempty"`
	AvatarURL                 *string   `json:"avatarUrl,omitempty"`
	Phone                     *string   `json:"phone,omitempty"`
	Role                      string    `json:"role"`
	IsVerified                bool      `json:"isVerified"`
	Language                  string    `json:"language"`
	Currency                  string    `json:"currency"`
	StripeOnboardingCompleted bool      `json:"stripeOnboardingCompleted"`
	CreatedAt                 time.Time `json:"createdAt"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}

// ToResponse converts a User model to its safe view. The subject ID and
// payment-account linkage stay internal.
func ToResponse(u *User) Response {
	return Response{
		ID:                        u.ID,
		Email:                     u.Email,
		FirstName:                 u.FirstName,
		LastName:                  u.LastName,
		AvatarURL:                 u.AvatarURL,
		Phone:                     u.Phone,
		Role:                      u.Role,
		IsVerified:                u.IsVerified,
		Language:                  u.Language,
		Currency:                  u.Currency,
		StripeOnboardingCompleted: u.StripeOnboardingCompleted,
		CreatedAt:                 u.CreatedAt,
		UpdatedAt:                 u.UpdatedAt,
	}
}

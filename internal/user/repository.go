// File: internal/user/repository.go
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"engla_backend/internal/common"
)

// Repository defines the interface for user data operations. Soft-deleted
// users are excluded from every lookup.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindBySubjectID(ctx context.Context, subjectID string) (*User, error)
	// FindBySubjectIDUnscoped includes soft-deleted records; the access
	// barrier uses it to tell a deactivated account apart from an unknown one.
	FindBySubjectIDUnscoped(ctx context.Context, subjectID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// UpdateFields applies one atomic UPDATE of the given columns and
	// returns the refreshed record.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*User, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// PurgeDeletedBefore permanently removes users soft-deleted before the
	// cutoff; returns the number of rows removed.
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, user *User) error {
	user.Email = common.NormalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateConflict(err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var record User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) FindBySubjectID(ctx context.Context, subjectID string) (*User, error) {
	var record User
	err := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) FindBySubjectIDUnscoped(ctx context.Context, subjectID string) (*User, error) {
	var record User
	err := r.db.WithContext(ctx).Unscoped().Where("subject_id = ?", subjectID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var record User
	err := r.db.WithContext(ctx).Where("email = ?", common.NormalizeEmail(email)).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*User, error) {
	if len(fields) == 0 {
		return r.FindByID(ctx, id)
	}
	result := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, translateConflict(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, common.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *gormRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *gormRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(&User{})
	return result.RowsAffected, result.Error
}

// translateConflict maps unique-constraint violations to the 409 domain
// error; every other persistence failure propagates unchanged.
func translateConflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "unique constraint") ||
		strings.Contains(err.Error(), "UNIQUE constraint") {
		if strings.Contains(err.Error(), "email") {
			return common.ErrConflict.WithCause(err).WithPayload(map[string]any{"field": "email"})
		}
		if strings.Contains(err.Error(), "subject_id") {
			return common.ErrConflict.WithCause(err).WithPayload(map[string]any{"field": "subject_id"})
		}
		return common.ErrConflict.WithCause(err)
	}
	return err
}

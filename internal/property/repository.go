// File: internal/property/repository.go
package property

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"engla_backend/internal/common"
)

// Repository defines the interface for property data operations. Soft-deleted
// listings are excluded from every lookup.
type Repository interface {
	Create(ctx context.Context, property *Property) error
	FindByID(ctx context.Context, id uuid.UUID) (*Property, error)
	FindBySlug(ctx context.Context, propertySlug string) (*Property, error)
	ListByHost(ctx context.Context, hostID uuid.UUID) ([]Property, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*Property, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ReplaceAmenities(ctx context.Context, id uuid.UUID, amenities []Amenity) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM property repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, property *Property) error {
	if property.Slug == "" {
		property.Slug = MakeSlug(property.Title)
	}
	if err := r.db.WithContext(ctx).Create(property).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrConflict.WithCause(err).WithPayload(map[string]any{"field": "slug"})
		}
		return err
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Property, error) {
	var record Property
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Preload("Amenities").
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) FindBySlug(ctx context.Context, propertySlug string) (*Property, error) {
	var record Property
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Preload("Amenities").
		Where("slug = ?", propertySlug).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) ListByHost(ctx context.Context, hostID uuid.UUID) ([]Property, error) {
	var records []Property
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Where("host_id = ?", hostID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *gormRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*Property, error) {
	if len(fields) == 0 {
		return r.FindByID(ctx, id)
	}
	if title, ok := fields["title"].(string); ok {
		fields["slug"] = MakeSlug(title)
	}
	result := r.db.WithContext(ctx).Model(&Property{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, common.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *gormRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Property{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *gormRepository) ReplaceAmenities(ctx context.Context, id uuid.UUID, amenities []Amenity) error {
	record := Property{BaseModel: common.BaseModel{ID: id}}
	return r.db.WithContext(ctx).Model(&record).Association("Amenities").Replace(amenities)
}

// MakeSlug derives a URL-safe slug from the title, suffixed with a short
// random discriminator so retitled listings never collide.
func MakeSlug(title string) string {
	return fmt.Sprintf("%s-%s", slug.Make(title), uuid.New().String()[:8])
}

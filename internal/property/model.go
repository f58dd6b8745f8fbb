// File: internal/property/model.go
package property

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"engla_backend/internal/common"
)

// Property types.
const (
	TypeApartment  = "apartment"
	TypeHouse      = "house"
	TypeGuesthouse = "guesthouse"
	TypeHotel      = "hotel"
)

// Room types.
const (
	RoomEntirePlace = "entire_place"
	RoomPrivate     = "private_room"
	RoomShared      = "shared_room"
)

// Listing lifecycle statuses.
const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusRejected = "rejected"
	StatusArchived = "archived"
)

// Property represents a rentable property listing owned by a host. Monetary
// amounts are stored in pence.
type Property struct {
	common.BaseModel
	HostID uuid.UUID `gorm:"type:uuid;not null;index"`

	Title       string `gorm:"type:varchar(255);not null"`
	Slug        string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Description string `gorm:"type:text;not null"`

	// Address (UK format)
	AddressLine1 string  `gorm:"type:varchar(255);not null"`
	AddressLine2 *string `gorm:"type:varchar(255)"`
	City         string  `gorm:"type:varchar(100);not null"`
	County       *string `gorm:"type:varchar(100)"`
	Postcode     string  `gorm:"type:varchar(10);not null"`

	Latitude  *float64 `gorm:"type:decimal(10,7)"`
	Longitude *float64 `gorm:"type:decimal(10,7)"`

	PricePerNight int `gorm:"not null"`
	CleaningFee   int `gorm:"not null;default:0"`

	PropertyType string `gorm:"type:varchar(50);not null"`
	RoomType     string `gorm:"type:varchar(50);not null"`
	MaxGuests    int    `gorm:"not null"`
	Bedrooms     int    `gorm:"not null"`
	Beds         int    `gorm:"not null"`
	Bathrooms    int    `gorm:"not null"`
	AreaSqM      *int
	PetsAllowed  bool `gorm:"column:is_pets_allowed;not null;default:false"`

	Status string `gorm:"type:varchar(50);not null;default:'draft'"`

	Images    []PropertyImage `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE;"`
	Amenities []Amenity       `gorm:"many2many:properties_amenities;constraint:OnDelete:CASCADE;"`

	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for the Property model.
func (Property) TableName() string {
	return "properties"
}

// PropertyImage is one image attached to a property listing.
type PropertyImage struct {
	common.BaseModel
	PropertyID uuid.UUID `gorm:"type:uuid;not null;index"`
	URL        string    `gorm:"type:varchar(2048);not null"`
	PublicID   *string   `gorm:"type:varchar(255)"`
	IsMain     bool      `gorm:"not null;default:false"`
	Order      int       `gorm:"column:display_order;not null;default:0"`
}

// TableName specifies the table name for the PropertyImage model.
func (PropertyImage) TableName() string {
	return "property_images"
}

// Amenity is a system-managed feature tag attachable to properties.
type Amenity struct {
	common.BaseModel
	Name     string  `gorm:"type:varchar(100);not null;uniqueIndex"`
	IconKey  *string `gorm:"type:varchar(100)"`
	Category *string `gorm:"type:varchar(100)"`
}

// TableName specifies the table name for the Amenity model.
func (Amenity) TableName() string {
	return "amenities"
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// AttributeType distinguishes free-text keys from bounded choice sets.
type AttributeType string

const (
	AttributeTypeText   AttributeType = "text"
	AttributeTypeSelect AttributeType = "select"
)

// AttributeKey is a registered dynamic attribute. Import columns are matched
// to keys by handle; unknown handles are skipped.
type AttributeKey struct {
	ID        uuid.UUID          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Handle    string             `json:"handle" gorm:"not null;uniqueIndex"`
	Name      string             `json:"name" gorm:"not null"`
	Type      AttributeType      `json:"type" gorm:"not null;default:'text'"`
	Options   []*AttributeOption `json:"options,omitempty" gorm:"foreignKey:AttributeKeyID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time          `json:"createdAt"`
}

// AttributeOption is one value of a select-type key. DisplayOrder is assigned
// at creation time so re-imports never reshuffle existing options.
type AttributeOption struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AttributeKeyID uuid.UUID `json:"attributeKeyId" gorm:"type:uuid;not null;index"`
	Value          string    `json:"value" gorm:"not null"`
	DisplayOrder   int       `json:"displayOrder"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AttributeValue is a product's assignment for one key. Multi-value
// assignments store the normalized values joined by ", ".
type AttributeValue struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID      uuid.UUID `json:"productId" gorm:"type:uuid;not null;index;uniqueIndex:idx_attribute_values_product_key"`
	AttributeKeyID uuid.UUID `json:"attributeKeyId" gorm:"type:uuid;not null;uniqueIndex:idx_attribute_values_product_key"`
	Value          string    `json:"value"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName returns the table name for the AttributeKey model
func (AttributeKey) TableName() string {
	return "attribute_keys"
}

// TableName returns the table name for the AttributeOption model
func (AttributeOption) TableName() string {
	return "attribute_options"
}

// TableName returns the table name for the AttributeValue model
func (AttributeValue) TableName() string {
	return "attribute_values"
}

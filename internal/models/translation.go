package models

import (
	"time"

	"github.com/google/uuid"
)

// TranslationEntity tags which text field a translation row belongs to.
type TranslationEntity string

const (
	TranslationEntityName      TranslationEntity = "name"
	TranslationEntityShortDesc TranslationEntity = "short-description"
	TranslationEntityLongDesc  TranslationEntity = "long-description"
)

// Translation is localized text for one product field. At most one row exists
// per (product, entity, locale); imports update the text in place.
type Translation struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID         `json:"productId" gorm:"type:uuid;not null;index;uniqueIndex:idx_translations_product_entity_locale"`
	Entity    TranslationEntity `json:"entity" gorm:"not null;uniqueIndex:idx_translations_product_entity_locale"`
	Locale    string            `json:"locale" gorm:"not null;uniqueIndex:idx_translations_product_entity_locale"`
	Text      string            `json:"text"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// TableName returns the table name for the Translation model
func (Translation) TableName() string {
	return "translations"
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog entry identified by its SKU (the natural key used to
// match import rows against existing records).
//
// Numeric commerce fields are stored as text on purpose: the import merge is a
// sparse overlay and an empty source cell must leave the stored value exactly
// as it was, never coerced to a numeric zero.
type Product struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SKU    string    `json:"sku" gorm:"not null;uniqueIndex:idx_products_sku"`
	Name   string    `json:"name" gorm:"not null"`
	Desc   string    `json:"desc"`
	Detail string    `json:"detail"`

	Price            string `json:"price"`
	SalePrice        string `json:"salePrice"`
	PriceMaximum     string `json:"priceMaximum"`
	PriceMinimum     string `json:"priceMinimum"`
	PriceSuggestions string `json:"priceSuggestions"`

	Qty         string `json:"qty"`
	MaxQty      string `json:"maxQty"`
	QtySteps    string `json:"qtySteps"`
	QtyLabel    string `json:"qtyLabel"`
	NumberItems string `json:"numberItems"`

	Length      string `json:"length"`
	Width       string `json:"width"`
	Height      string `json:"height"`
	Weight      string `json:"weight"`
	PackageData string `json:"packageData"`

	Featured           bool `json:"featured"`
	Active             bool `json:"active"`
	Taxable            bool `json:"taxable"`
	Shippable          bool `json:"shippable"`
	Exclusive          bool `json:"exclusive"`
	NoQty              bool `json:"noQty"`
	QtyUnlimited       bool `json:"qtyUnlimited"`
	AllowBackOrder     bool `json:"allowBackOrder"`
	AllowDecimalQty    bool `json:"allowDecimalQty"`
	AllowCustomerPrice bool `json:"allowCustomerPrice"`
	CreatesUserAccount bool `json:"createsUserAccount"`
	AutoCheckout       bool `json:"autoCheckout"`
	SeparateShip       bool `json:"separateShip"`

	ImageFileID *uuid.UUID `json:"imageFileId,omitempty" gorm:"type:uuid;index"`
	PageID      *uuid.UUID `json:"pageId,omitempty" gorm:"type:uuid"`

	Groups []*ProductGroup `json:"groups,omitempty" gorm:"many2many:product_group_memberships;"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// ProductGroup is a named grouping products can belong to. Groups referenced
// by an import row are created on demand.
type ProductGroup struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"createdAt"`
}

// StoredFile is an asset held by the file store. Imported images are
// de-duplicated against it by case-insensitive filename.
type StoredFile struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Filename  string    `json:"filename" gorm:"not null;index"`
	Path      string    `json:"path" gorm:"not null"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// PageSection is a site-tree parent under which product pages are generated.
// The empty locale names the canonical section.
type PageSection struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Locale string    `json:"locale" gorm:"uniqueIndex"`
	Name   string    `json:"name" gorm:"not null"`
}

// Page is a generated presentation page for a product. Locale is empty for
// the canonical page; localized counterparts carry the full locale code.
type Page struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID  `json:"productId" gorm:"type:uuid;not null;index;uniqueIndex:idx_pages_product_locale"`
	Locale    string     `json:"locale" gorm:"uniqueIndex:idx_pages_product_locale"`
	SectionID *uuid.UUID `json:"sectionId,omitempty" gorm:"type:uuid"`
	Title     string     `json:"title" gorm:"not null"`
	Path      string     `json:"path"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Setting is one key of the import configuration surface, persisted so the
// dashboard can round-trip delimiter, enclosure and friends between runs.
type Setting struct {
	Key       string    `json:"key" gorm:"primary_key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the ProductGroup model
func (ProductGroup) TableName() string {
	return "product_groups"
}

// TableName returns the table name for the StoredFile model
func (StoredFile) TableName() string {
	return "stored_files"
}

// TableName returns the table name for the Page model
func (Page) TableName() string {
	return "pages"
}

// TableName returns the table name for the PageSection model
func (PageSection) TableName() string {
	return "page_sections"
}

// TableName returns the table name for the Setting model
func (Setting) TableName() string {
	return "settings"
}

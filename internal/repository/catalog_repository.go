package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"catalog-import-service/internal/models"
)

// Cache TTL constants
const (
	ProductCacheTTL = 5 * time.Minute  // SKU lookup cache
	FileCacheTTL    = 10 * time.Minute // stored-asset filename cache
)

// Catalog is the storage contract the import engine consumes. Lookups return
// (nil, nil) when the entity is absent; only infrastructure failures error.
type Catalog interface {
	FindBySKU(sku string) (*models.Product, error)
	CreateProduct(p *models.Product) error
	SaveProduct(p *models.Product) error

	FindAttributeKeyByHandle(handle string) (*models.AttributeKey, error)
	FindOrCreateOption(key *models.AttributeKey, value string) (*models.AttributeOption, error)
	SetAttributeValue(productID, keyID uuid.UUID, value string) error

	FindOrCreateGroup(name string) (*models.ProductGroup, error)
	SetProductGroups(p *models.Product, groups []*models.ProductGroup) error

	GeneratePage(p *models.Product) (bool, error)
	FindSectionByLocale(locale string) (*models.PageSection, error)
	FindPage(productID uuid.UUID, locale string) (*models.Page, error)
	SavePage(page *models.Page) error

	FindFileByName(filename string) (*models.StoredFile, error)
	FindFileByID(id uuid.UUID) (*models.StoredFile, error)
	ImportFile(data []byte, filename string) (*models.StoredFile, error)

	UpsertTranslation(t *models.Translation) (bool, error)
}

// CatalogRepository is the gorm-backed catalog store with a Redis lookup
// cache in front of the two hot import paths: SKU and asset filename.
type CatalogRepository struct {
	db       *gorm.DB
	redis    *redis.Client
	assetDir string
}

var _ Catalog = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client, assetDir string) *CatalogRepository {
	return &CatalogRepository{
		db:       db,
		redis:    redisClient,
		assetDir: assetDir,
	}
}

func skuCacheKey(sku string) string {
	return "catalog:product:sku:" + sku
}

func fileCacheKey(filename string) string {
	return "catalog:file:" + strings.ToLower(filename)
}

// Product operations

// FindBySKU looks up a product by its natural key. The match is
// case-sensitive, which is why the cache key is not lowered.
func (r *CatalogRepository) FindBySKU(sku string) (*models.Product, error) {
	ctx := context.Background()

	if r.redis != nil {
		if val, err := r.redis.Get(ctx, skuCacheKey(sku)).Result(); err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	err := r.db.Preload("Groups").Where("sku = ?", sku).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(product); err == nil {
			r.redis.Set(ctx, skuCacheKey(sku), data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// CreateProduct persists a new catalog entry.
func (r *CatalogRepository) CreateProduct(p *models.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	if err := r.db.Create(p).Error; err != nil {
		return err
	}
	r.invalidateProduct(p.SKU)
	return nil
}

// SaveProduct writes a modified catalog entry back.
func (r *CatalogRepository) SaveProduct(p *models.Product) error {
	p.UpdatedAt = time.Now()
	if err := r.db.Omit("Groups").Save(p).Error; err != nil {
		return err
	}
	r.invalidateProduct(p.SKU)
	return nil
}

// GetProductByID retrieves a product with its groups.
func (r *CatalogRepository) GetProductByID(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Groups").Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns a page of products, optionally filtered by a search
// term matched against SKU and name.
func (r *CatalogRepository) ListProducts(search string, page, pageSize int) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(sku) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := query.Preload("Groups").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *CatalogRepository) invalidateProduct(sku string) {
	if r.redis != nil {
		r.redis.Del(context.Background(), skuCacheKey(sku))
	}
}

// Attribute operations

// FindAttributeKeyByHandle resolves a registered attribute key, with options.
func (r *CatalogRepository) FindAttributeKeyByHandle(handle string) (*models.AttributeKey, error) {
	var key models.AttributeKey
	err := r.db.Preload("Options").Where("handle = ?", handle).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// FindOrCreateOption finds a select option case-insensitively or appends a
// new one at the end of the key's display order. Idempotent across re-runs.
func (r *CatalogRepository) FindOrCreateOption(key *models.AttributeKey, value string) (*models.AttributeOption, error) {
	var option models.AttributeOption
	err := r.db.Where("attribute_key_id = ? AND LOWER(value) = LOWER(?)", key.ID, value).First(&option).Error
	if err == nil {
		return &option, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var maxOrder int
	row := r.db.Model(&models.AttributeOption{}).
		Where("attribute_key_id = ?", key.ID).
		Select("COALESCE(MAX(display_order), 0)").
		Row()
	if err := row.Scan(&maxOrder); err != nil {
		return nil, err
	}

	option = models.AttributeOption{
		ID:             uuid.New(),
		AttributeKeyID: key.ID,
		Value:          value,
		DisplayOrder:   maxOrder + 1,
		CreatedAt:      time.Now(),
	}
	if err := r.db.Create(&option).Error; err != nil {
		return nil, err
	}
	return &option, nil
}

// SetAttributeValue upserts a product's assignment for one attribute key.
func (r *CatalogRepository) SetAttributeValue(productID, keyID uuid.UUID, value string) error {
	var existing models.AttributeValue
	err := r.db.Where("product_id = ? AND attribute_key_id = ?", productID, keyID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(&models.AttributeValue{
			ID:             uuid.New(),
			ProductID:      productID,
			AttributeKeyID: keyID,
			Value:          value,
			UpdatedAt:      time.Now(),
		}).Error
	}
	if err != nil {
		return err
	}
	existing.Value = value
	existing.UpdatedAt = time.Now()
	return r.db.Save(&existing).Error
}

// Group operations

// FindOrCreateGroup resolves a product group by name, creating it on demand.
func (r *CatalogRepository) FindOrCreateGroup(name string) (*models.ProductGroup, error) {
	var group models.ProductGroup
	err := r.db.Where("name = ?", name).First(&group).Error
	if err == nil {
		return &group, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	group = models.ProductGroup{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	if err := r.db.Create(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// SetProductGroups replaces the product's group memberships.
func (r *CatalogRepository) SetProductGroups(p *models.Product, groups []*models.ProductGroup) error {
	if err := r.db.Model(p).Association("Groups").Replace(groups); err != nil {
		return err
	}
	r.invalidateProduct(p.SKU)
	return nil
}

// Page operations

// GeneratePage creates the canonical presentation page for a product that
// does not own one yet. Returns false without touching anything when a page
// already exists.
func (r *CatalogRepository) GeneratePage(p *models.Product) (bool, error) {
	if p.PageID != nil {
		return false, nil
	}

	section, err := r.findOrCreateSection("", "Products")
	if err != nil {
		return false, err
	}

	page := models.Page{
		ID:        uuid.New(),
		ProductID: p.ID,
		Locale:    "",
		SectionID: &section.ID,
		Title:     p.Name,
		Path:      "/products/" + slugify(p.Name),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := r.db.Create(&page).Error; err != nil {
		return false, err
	}

	p.PageID = &page.ID
	if err := r.SaveProduct(p); err != nil {
		return false, err
	}
	return true, nil
}

// FindSectionByLocale resolves the site-tree section for a locale.
func (r *CatalogRepository) FindSectionByLocale(locale string) (*models.PageSection, error) {
	var section models.PageSection
	err := r.db.Where("locale = ?", locale).First(&section).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *CatalogRepository) findOrCreateSection(locale, name string) (*models.PageSection, error) {
	section, err := r.FindSectionByLocale(locale)
	if err != nil || section != nil {
		return section, err
	}
	created := models.PageSection{ID: uuid.New(), Locale: locale, Name: name}
	if err := r.db.Create(&created).Error; err != nil {
		return nil, err
	}
	return &created, nil
}

// FindPage resolves a product's page for one locale ("" = canonical).
func (r *CatalogRepository) FindPage(productID uuid.UUID, locale string) (*models.Page, error) {
	var page models.Page
	err := r.db.Where("product_id = ? AND locale = ?", productID, locale).First(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// SavePage upserts a page row.
func (r *CatalogRepository) SavePage(page *models.Page) error {
	if page.ID == uuid.Nil {
		page.ID = uuid.New()
		page.CreatedAt = time.Now()
	}
	page.UpdatedAt = time.Now()
	return r.db.Save(page).Error
}

// File operations

// FindFileByName looks up a stored asset by case-insensitive filename.
func (r *CatalogRepository) FindFileByName(filename string) (*models.StoredFile, error) {
	ctx := context.Background()

	if r.redis != nil {
		if val, err := r.redis.Get(ctx, fileCacheKey(filename)).Result(); err == nil {
			var file models.StoredFile
			if err := json.Unmarshal([]byte(val), &file); err == nil {
				return &file, nil
			}
		}
	}

	var file models.StoredFile
	err := r.db.Where("LOWER(filename) = LOWER(?)", filename).
		Order("created_at DESC").
		First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(file); err == nil {
			r.redis.Set(ctx, fileCacheKey(filename), data, FileCacheTTL)
		}
	}

	return &file, nil
}

// FindFileByID looks up a stored asset by identifier.
func (r *CatalogRepository) FindFileByID(id uuid.UUID) (*models.StoredFile, error) {
	var file models.StoredFile
	err := r.db.Where("id = ?", id).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// ImportFile writes binary content into the asset directory and records it.
func (r *CatalogRepository) ImportFile(data []byte, filename string) (*models.StoredFile, error) {
	filename = filepath.Base(filename)
	if filename == "" || filename == "." {
		return nil, fmt.Errorf("invalid asset filename")
	}

	id := uuid.New()
	dir := filepath.Join(r.assetDir, id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write asset: %w", err)
	}

	file := models.StoredFile{
		ID:        id,
		Filename:  filename,
		Path:      path,
		Size:      int64(len(data)),
		CreatedAt: time.Now(),
	}
	if err := r.db.Create(&file).Error; err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	if r.redis != nil {
		r.redis.Del(context.Background(), fileCacheKey(filename))
	}

	return &file, nil
}

// Translation operations

// UpsertTranslation writes localized text keyed by (product, entity, locale).
// Returns true when a new row was created.
func (r *CatalogRepository) UpsertTranslation(t *models.Translation) (bool, error) {
	var existing models.Translation
	err := r.db.Where("product_id = ? AND entity = ? AND locale = ?", t.ProductID, t.Entity, t.Locale).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		t.UpdatedAt = time.Now()
		return true, r.db.Create(t).Error
	}
	if err != nil {
		return false, err
	}

	existing.Text = t.Text
	existing.UpdatedAt = time.Now()
	return false, r.db.Save(&existing).Error
}

// Settings operations

// GetSettings loads persisted import settings, falling back to the provided
// defaults for keys never saved.
func (r *CatalogRepository) GetSettings(defaults models.ImportSettings) (models.ImportSettings, error) {
	var rows []models.Setting
	if err := r.db.Where("key LIKE ?", "import.%").Find(&rows).Error; err != nil {
		return defaults, err
	}

	settings := defaults
	for _, row := range rows {
		applySettingRow(&settings, row)
	}
	return settings, nil
}

// SaveSettings persists the import configuration surface.
func (r *CatalogRepository) SaveSettings(settings models.ImportSettings) error {
	for key, value := range settingsPairs(settings) {
		setting := models.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
		if err := r.db.Save(&setting).Error; err != nil {
			return err
		}
	}
	return nil
}

// settingsPairs flattens the settings surface into its persisted keys.
func settingsPairs(settings models.ImportSettings) map[string]string {
	return map[string]string{
		"import.delimiter":        settings.Delimiter,
		"import.enclosure":        settings.Enclosure,
		"import.max_line_length":  strconv.Itoa(settings.MaxLineLength),
		"import.max_run_seconds":  strconv.Itoa(settings.MaxRunSeconds),
		"import.default_image_id": settings.DefaultImageID,
		"import.validate_headers": strconv.FormatBool(settings.ValidateHeaders),
	}
}

// applySettingRow folds one persisted row into the settings surface.
func applySettingRow(settings *models.ImportSettings, row models.Setting) {
	switch row.Key {
	case "import.delimiter":
		settings.Delimiter = row.Value
	case "import.enclosure":
		settings.Enclosure = row.Value
	case "import.max_line_length":
		if n, err := strconv.Atoi(row.Value); err == nil {
			settings.MaxLineLength = n
		}
	case "import.max_run_seconds":
		if n, err := strconv.Atoi(row.Value); err == nil {
			settings.MaxRunSeconds = n
		}
	case "import.default_image_id":
		settings.DefaultImageID = row.Value
	case "import.validate_headers":
		settings.ValidateHeaders = row.Value == "true"
	}
}

// slugify produces a URL path segment from a product name.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

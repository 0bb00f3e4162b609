package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"catalog-import-service/internal/models"
	"catalog-import-service/internal/repository"
	"catalog-import-service/internal/source"
)

// fakeCatalog is an in-memory Catalog used to exercise the full pipeline,
// including properties that need real state, like re-running the same source.
type fakeCatalog struct {
	products     map[string]*models.Product // by SKU
	keys         map[string]*models.AttributeKey
	options      map[uuid.UUID][]*models.AttributeOption // by key id
	values       map[string]string                       // productID|keyID -> value
	groups       map[string]*models.ProductGroup
	memberships  map[uuid.UUID][]string // product id -> group names
	files        map[string]*models.StoredFile // by lower filename
	imported     []string                      // filenames passed to ImportFile
	sections     map[string]*models.PageSection
	pages        map[string]*models.Page // productID|locale
	translations map[string]*models.Translation

	failCreate bool
	onCreate   func()
}

var _ repository.Catalog = (*fakeCatalog)(nil)

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products:     make(map[string]*models.Product),
		keys:         make(map[string]*models.AttributeKey),
		options:      make(map[uuid.UUID][]*models.AttributeOption),
		values:       make(map[string]string),
		groups:       make(map[string]*models.ProductGroup),
		memberships:  make(map[uuid.UUID][]string),
		files:        make(map[string]*models.StoredFile),
		sections:     make(map[string]*models.PageSection),
		pages:        make(map[string]*models.Page),
		translations: make(map[string]*models.Translation),
	}
}

func (f *fakeCatalog) FindBySKU(sku string) (*models.Product, error) {
	if p, ok := f.products[sku]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeCatalog) CreateProduct(p *models.Product) error {
	if f.failCreate {
		return fmt.Errorf("create rejected")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	stored := *p
	f.products[p.SKU] = &stored
	if f.onCreate != nil {
		f.onCreate()
	}
	return nil
}

func (f *fakeCatalog) SaveProduct(p *models.Product) error {
	stored := *p
	f.products[p.SKU] = &stored
	return nil
}

func (f *fakeCatalog) FindAttributeKeyByHandle(handle string) (*models.AttributeKey, error) {
	if k, ok := f.keys[strings.ToLower(handle)]; ok {
		return k, nil
	}
	return nil, nil
}

func (f *fakeCatalog) FindOrCreateOption(key *models.AttributeKey, value string) (*models.AttributeOption, error) {
	for _, o := range f.options[key.ID] {
		if strings.EqualFold(o.Value, value) {
			return o, nil
		}
	}
	o := &models.AttributeOption{
		ID:             uuid.New(),
		AttributeKeyID: key.ID,
		Value:          value,
		DisplayOrder:   len(f.options[key.ID]) + 1,
	}
	f.options[key.ID] = append(f.options[key.ID], o)
	return o, nil
}

func (f *fakeCatalog) SetAttributeValue(productID, keyID uuid.UUID, value string) error {
	f.values[productID.String()+"|"+keyID.String()] = value
	return nil
}

func (f *fakeCatalog) FindOrCreateGroup(name string) (*models.ProductGroup, error) {
	if g, ok := f.groups[name]; ok {
		return g, nil
	}
	g := &models.ProductGroup{ID: uuid.New(), Name: name}
	f.groups[name] = g
	return g, nil
}

func (f *fakeCatalog) SetProductGroups(p *models.Product, groups []*models.ProductGroup) error {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	f.memberships[p.ID] = names
	return nil
}

func (f *fakeCatalog) GeneratePage(p *models.Product) (bool, error) {
	if p.PageID != nil {
		return false, nil
	}
	page := &models.Page{ID: uuid.New(), ProductID: p.ID, Title: p.Name, Path: "/products/" + strings.ToLower(p.SKU)}
	f.pages[p.ID.String()+"|"] = page
	p.PageID = &page.ID
	return true, f.SaveProduct(p)
}

func (f *fakeCatalog) FindSectionByLocale(locale string) (*models.PageSection, error) {
	if s, ok := f.sections[locale]; ok {
		return s, nil
	}
	return nil, nil
}

func (f *fakeCatalog) FindPage(productID uuid.UUID, locale string) (*models.Page, error) {
	if p, ok := f.pages[productID.String()+"|"+locale]; ok {
		return p, nil
	}
	return nil, nil
}

func (f *fakeCatalog) SavePage(page *models.Page) error {
	if page.ID == uuid.Nil {
		page.ID = uuid.New()
	}
	f.pages[page.ProductID.String()+"|"+page.Locale] = page
	return nil
}

func (f *fakeCatalog) FindFileByName(filename string) (*models.StoredFile, error) {
	if file, ok := f.files[strings.ToLower(filename)]; ok {
		return file, nil
	}
	return nil, nil
}

func (f *fakeCatalog) FindFileByID(id uuid.UUID) (*models.StoredFile, error) {
	for _, file := range f.files {
		if file.ID == id {
			return file, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) ImportFile(data []byte, filename string) (*models.StoredFile, error) {
	file := &models.StoredFile{ID: uuid.New(), Filename: filename, Size: int64(len(data))}
	f.files[strings.ToLower(filename)] = file
	f.imported = append(f.imported, filename)
	return file, nil
}

func (f *fakeCatalog) UpsertTranslation(t *models.Translation) (bool, error) {
	key := t.ProductID.String() + "|" + string(t.Entity) + "|" + t.Locale
	_, existed := f.translations[key]
	f.translations[key] = t
	return !existed, nil
}

// stageFile pre-loads a stored asset, as the upload endpoint would.
func (f *fakeCatalog) stageFile(filename string) *models.StoredFile {
	file := &models.StoredFile{ID: uuid.New(), Filename: filename}
	f.files[strings.ToLower(filename)] = file
	return file
}

// productFixture builds a minimal existing catalog entry.
func productFixture(sku, name, price string) *models.Product {
	return &models.Product{
		ID:     uuid.New(),
		SKU:    sku,
		Name:   name,
		Price:  price,
		Active: true,
	}
}

// stubSource replays fixed rows.
type stubSource struct {
	headings []string
	rows     []source.Row
	images   map[int]source.ImageRef
	err      error
	closed   bool
}

func (s *stubSource) Open() ([]string, []source.Row, map[int]source.ImageRef, error) {
	if s.err != nil {
		return nil, nil, nil, s.err
	}
	images := s.images
	if images == nil {
		images = map[int]source.ImageRef{}
	}
	return s.headings, s.rows, images, nil
}

func (s *stubSource) Close() error {
	s.closed = true
	return nil
}

func rowsOf(cells ...[]string) []source.Row {
	rows := make([]source.Row, len(cells))
	for i, c := range cells {
		rows[i] = source.Row{Index: i, Cells: c}
	}
	return rows
}

// fakeFetcher serves canned bytes per URL.
type fakeFetcher struct {
	responses map[string][]byte
	requested []string
}

func (f *fakeFetcher) Download(_ context.Context, url string) ([]byte, error) {
	f.requested = append(f.requested, url)
	if data, ok := f.responses[url]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("no response for %s", url)
}

package importer

import (
	"strings"

	"catalog-import-service/internal/models"
	"catalog-import-service/internal/repository"
)

// runCache memoizes attribute-key and group lookups for the duration of one
// import run. Misses are cached too so an unknown handle repeated across a
// thousand rows costs one query, not a thousand.
type runCache struct {
	catalog repository.Catalog

	keys     map[string]*models.AttributeKey
	keyMiss  map[string]bool
	groups   map[string]*models.ProductGroup
	sections map[string]*models.PageSection
	secMiss  map[string]bool
}

func newRunCache(catalog repository.Catalog) *runCache {
	return &runCache{
		catalog:  catalog,
		keys:     make(map[string]*models.AttributeKey),
		keyMiss:  make(map[string]bool),
		groups:   make(map[string]*models.ProductGroup),
		sections: make(map[string]*models.PageSection),
		secMiss:  make(map[string]bool),
	}
}

// AttributeKey resolves a handle to its registered key, nil when unregistered.
func (c *runCache) AttributeKey(handle string) (*models.AttributeKey, error) {
	handle = strings.ToLower(handle)
	if key, ok := c.keys[handle]; ok {
		return key, nil
	}
	if c.keyMiss[handle] {
		return nil, nil
	}
	key, err := c.catalog.FindAttributeKeyByHandle(handle)
	if err != nil {
		return nil, err
	}
	if key == nil {
		c.keyMiss[handle] = true
		return nil, nil
	}
	c.keys[handle] = key
	return key, nil
}

// Group resolves a group name, creating the group on first sight.
func (c *runCache) Group(name string) (*models.ProductGroup, error) {
	if group, ok := c.groups[name]; ok {
		return group, nil
	}
	group, err := c.catalog.FindOrCreateGroup(name)
	if err != nil {
		return nil, err
	}
	c.groups[name] = group
	return group, nil
}

// Section resolves the site-tree section for a locale, nil when absent.
func (c *runCache) Section(locale string) (*models.PageSection, error) {
	if section, ok := c.sections[locale]; ok {
		return section, nil
	}
	if c.secMiss[locale] {
		return nil, nil
	}
	section, err := c.catalog.FindSectionByLocale(locale)
	if err != nil {
		return nil, err
	}
	if section == nil {
		c.secMiss[locale] = true
		return nil, nil
	}
	c.sections[locale] = section
	return section, nil
}

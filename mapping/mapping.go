// Package mapping persists which provider slug a catalogue entry was matched to.
package mapping

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AlexMakesC0de/anime-watch/filesystem"
	"github.com/AlexMakesC0de/anime-watch/log"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/exp/slices"
)

// ProviderMapping binds a catalogue id to a provider slug.
type ProviderMapping struct {
	CatalogueID int       `json:"catalogueId"`
	Provider    string    `json:"provider"`
	Slug        string    `json:"slug"`
	CachedAt    time.Time `json:"cachedAt"`
}

type cacheData struct {
	Mappings map[string]*ProviderMapping `json:"mappings"`
}

// Cache is a JSON-backed mapping store. Rows are unique per (catalogue id, provider).
type Cache struct {
	internal *gache.Cache[*cacheData]
	mu       sync.RWMutex
}

// New opens the mapping store at path on the active filesystem.
func New(path string) *Cache {
	return &Cache{
		internal: gache.New[*cacheData](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

func rowKey(id int, provider string) string {
	return fmt.Sprintf("%d:%s", id, provider)
}

func (c *Cache) load() (*cacheData, error) {
	data, expired, err := c.internal.Get()
	if err != nil {
		return nil, err
	}
	if expired || data == nil || data.Mappings == nil {
		return &cacheData{Mappings: make(map[string]*ProviderMapping)}, nil
	}
	return data, nil
}

// Get returns the slug mapped to id on provider.
func (c *Cache) Get(id int, provider string) mo.Option[string] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := c.load()
	if err != nil {
		log.Warnf("reading mappings: %v", err)
		return mo.None[string]()
	}

	if m, ok := data.Mappings[rowKey(id, provider)]; ok && m.Slug != "" {
		return mo.Some(m.Slug)
	}
	return mo.None[string]()
}

// Set stores slug for id on provider, replacing any previous row.
func (c *Cache) Set(id int, provider, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.load()
	if err != nil {
		return err
	}

	data.Mappings[rowKey(id, provider)] = &ProviderMapping{
		CatalogueID: id,
		Provider:    provider,
		Slug:        slug,
		CachedAt:    time.Now(),
	}

	log.Infof("mapped %d to %s on %s", id, slug, provider)
	return c.internal.Set(data)
}

// Clear removes every provider row of id.
func (c *Cache) Clear(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.load()
	if err != nil {
		return err
	}

	prefix := fmt.Sprintf("%d:", id)
	removed := lo.Filter(lo.Keys(data.Mappings), func(k string, _ int) bool {
		return strings.HasPrefix(k, prefix)
	})
	if len(removed) == 0 {
		return nil
	}

	for _, k := range removed {
		delete(data.Mappings, k)
	}

	log.Infof("cleared %d mapping(s) of %d", len(removed), id)
	return c.internal.Set(data)
}

// All returns every row ordered by catalogue id, then provider.
func (c *Cache) All() []ProviderMapping {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := c.load()
	if err != nil {
		log.Warnf("reading mappings: %v", err)
		return nil
	}

	rows := lo.Map(lo.Values(data.Mappings), func(m *ProviderMapping, _ int) ProviderMapping { return *m })
	slices.SortFunc(rows, func(a, b ProviderMapping) int {
		if a.CatalogueID != b.CatalogueID {
			return a.CatalogueID - b.CatalogueID
		}
		return strings.Compare(a.Provider, b.Provider)
	})
	return rows
}

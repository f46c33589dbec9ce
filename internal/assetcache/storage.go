package assetcache

import (
	"maps"
	"net/http"
	"slices"
	"sync"
)

// Entry is a stored response.
type Entry struct {
	Status int
	Header http.Header
	Body   []byte
	// SameOrigin is false for responses that were redirected to another
	// host. Only same-origin responses are cached.
	SameOrigin bool
}

func (e *Entry) clone() *Entry {
	return &Entry{
		Status:     e.Status,
		Header:     e.Header.Clone(),
		Body:       slices.Clone(e.Body),
		SameOrigin: e.SameOrigin,
	}
}

// Cache is a named set of stored responses keyed by request URI.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func (c *Cache) Match(key string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.clone(), true
}

func (c *Cache) Put(key string, e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e.clone()
}

func (c *Cache) putAll(entries map[string]*Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range entries {
		c.entries[k] = e
	}
}

func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.entries))
}

// Storage holds every named cache of the process.
type Storage struct {
	mu     sync.Mutex
	caches map[string]*Cache
}

func NewStorage() *Storage {
	return &Storage{caches: make(map[string]*Cache)}
}

// Open returns the cache called name, creating it if needed.
func (s *Storage) Open(name string) *Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[name]
	if !ok {
		c = &Cache{entries: make(map[string]*Entry)}
		s.caches[name] = c
	}
	return c
}

func (s *Storage) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.caches[name]
	delete(s.caches, name)
	return ok
}

func (s *Storage) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.caches))
}

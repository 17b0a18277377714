package docx

import (
	"path/filepath"
	"sync"
)

// TemplateCache loads each template at most once per canonical path and
// shares the result between concurrent document builds. Failed loads are
// cached as well.
type TemplateCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	load    func(path string) (*Template, error)
	enabled bool
}

type cacheEntry struct {
	once     sync.Once
	template *Template
	err      error
}

// NewTemplateCache creates a cache backed by LoadTemplate. A disabled cache
// loads on every call.
func NewTemplateCache(enabled bool) *TemplateCache {
	return NewTemplateCacheWithLoader(enabled, LoadTemplate)
}

// NewTemplateCacheWithLoader creates a cache with a custom loader
func NewTemplateCacheWithLoader(enabled bool, load func(path string) (*Template, error)) *TemplateCache {
	return &TemplateCache{
		entries: make(map[string]*cacheEntry),
		load:    load,
		enabled: enabled,
	}
}

// Load returns the template for path, loading it on first use
func (tc *TemplateCache) Load(path string) (*Template, error) {
	key := canonicalPath(path)
	if !tc.enabled {
		return tc.load(key)
	}

	tc.mu.Lock()
	entry, ok := tc.entries[key]
	if !ok {
		entry = &cacheEntry{}
		tc.entries[key] = entry
	}
	tc.mu.Unlock()

	entry.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				entry.template, entry.err = nil, RecoverError(r)
			}
		}()
		entry.template, entry.err = tc.load(key)
	})
	return entry.template, entry.err
}

// Size returns the number of cached paths
func (tc *TemplateCache) Size() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.entries)
}

// Clear drops every cached entry
func (tc *TemplateCache) Clear() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.entries = make(map[string]*cacheEntry)
}

func canonicalPath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return filepath.Clean(path)
}

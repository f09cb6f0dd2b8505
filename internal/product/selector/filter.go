// Package selector derives read-only projections from store state.
// Returned slices are shared between callers and must not be modified.
package selector

import (
	"strings"
	"sync"

	"github.com/abgdnv/productboard/internal/product/model"
)

// AllCategories is the category filter value that matches every product.
const AllCategories = "all"

// Filter keeps the items whose title contains query, ignoring case, and whose
// category equals category unless it is AllCategories. Order is preserved.
func Filter(items []model.Product, query, category string) []model.Product {
	needle := strings.ToLower(query)
	out := make([]model.Product, 0, len(items))
	for _, p := range items {
		if needle != "" && !strings.Contains(strings.ToLower(p.Title), needle) {
			continue
		}
		if category != AllCategories && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out
}

type filterKey struct {
	version  uint64
	query    string
	category string
}

// Memo caches the last Filter result keyed on the items version and both filters.
type Memo struct {
	mu           sync.Mutex
	valid        bool
	key          filterKey
	result       []model.Product
	computations int
}

// Filtered returns Filter(items, query, category), recomputing only when
// version, query or category differ from the previous call.
func (m *Memo) Filtered(version uint64, items []model.Product, query, category string) []model.Product {
	key := filterKey{version: version, query: query, category: category}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid && m.key == key {
		return m.result
	}
	m.result = Filter(items, query, category)
	m.key = key
	m.valid = true
	m.computations++
	return m.result
}

// Computations returns how many times the filter actually ran.
func (m *Memo) Computations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computations
}

// byVersion caches a single value derived from the items of one version.
type byVersion[T any] struct {
	mu           sync.Mutex
	valid        bool
	version      uint64
	value        T
	computations int
}

func (c *byVersion[T]) get(version uint64, compute func() T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.version == version {
		return c.value
	}
	c.value = compute()
	c.version = version
	c.valid = true
	c.computations++
	return c.value
}

func (c *byVersion[T]) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.computations
}

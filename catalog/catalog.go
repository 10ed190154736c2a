// Package catalog loads the skincare product catalog and answers
// column/pattern searches planned by the product lookup agent.
package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/ristretto"
)

// Columns that a search plan may reference. Plans produced by the LLM are
// filtered down to this set before searching.
const (
	ColName        = "product_name"
	ColURL         = "product_url"
	ColType        = "product_type"
	ColIngredients = "ingredients"
	ColPrice       = "price"
)

// AllowedColumns lists every searchable catalog column.
var AllowedColumns = []string{ColName, ColURL, ColType, ColIngredients, ColPrice}

// Product is one catalog row.
type Product struct {
	Name        string `json:"product_name"`
	URL         string `json:"product_url"`
	Type        string `json:"product_type"`
	Ingredients string `json:"ingredients"`
	Price       string `json:"price"`
}

// Field returns the value of a column by its catalog column name.
func (p *Product) Field(col string) string {
	switch col {
	case ColName:
		return p.Name
	case ColURL:
		return p.URL
	case ColType:
		return p.Type
	case ColIngredients:
		return p.Ingredients
	case ColPrice:
		return p.Price
	}
	return ""
}

// Plan describes which columns to search and what patterns to look for in
// each of them. Patterns are matched as lowercase substrings.
type Plan struct {
	Columns  []string            `json:"columns_to_search"`
	Patterns map[string][]string `json:"patterns"`
	Reason   string              `json:"reason"`
}

// Catalog holds the loaded products and a small search cache.
type Catalog struct {
	products []Product
	cache    *ristretto.Cache
}

// Load reads the catalog CSV. The header row must contain the five
// standard columns; extra columns are ignored.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	products, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("init search cache: %w", err)
	}

	log.Printf("[CATALOG] Loaded %d products from %s", len(products), path)
	return &Catalog{products: products, cache: cache}, nil
}

// New builds a catalog from already-parsed products. Used by tests and by
// callers that source products elsewhere.
func New(products []Product) *Catalog {
	cache, _ := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	return &Catalog{products: products, cache: cache}
}

func parse(r io.Reader) ([]Product, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(strings.ToLower(col))] = i
	}
	for _, col := range AllowedColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var products []Product
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		products = append(products, Product{
			Name:        strings.TrimSpace(rec[idx[ColName]]),
			URL:         strings.TrimSpace(rec[idx[ColURL]]),
			Type:        strings.TrimSpace(rec[idx[ColType]]),
			Ingredients: strings.TrimSpace(rec[idx[ColIngredients]]),
			Price:       strings.TrimSpace(rec[idx[ColPrice]]),
		})
	}
	return products, nil
}

// Products returns all catalog rows.
func (c *Catalog) Products() []Product {
	return c.products
}

// Search runs a column/pattern search.
//
// If product_type is among the searched columns and has patterns, products
// must match one of those patterns to be eligible at all (category gate).
// The remaining columns are OR-matched; a product that passed the category
// gate is kept even when no other column matches. Results are de-duplicated
// by product name, preserving catalog order.
func (c *Catalog) Search(plan Plan) []Product {
	plan = sanitize(plan)

	if cached, ok := c.cache.Get(cacheKey(plan)); ok {
		return cached.([]Product)
	}

	typePatterns := lowerAll(plan.Patterns[ColType])
	requireType := containsString(plan.Columns, ColType) && len(typePatterns) > 0

	var results []Product
	for _, p := range c.products {
		if requireType && !matchesAny(strings.ToLower(p.Type), typePatterns) {
			continue
		}

		matched := false
		for _, col := range plan.Columns {
			value := strings.ToLower(p.Field(col))
			if matchesAny(value, lowerAll(plan.Patterns[col])) {
				matched = true
				break
			}
		}
		// The category gate alone is enough: the product is already in
		// the right bucket.
		if requireType {
			matched = true
		}
		if matched {
			results = append(results, p)
		}
	}

	results = dedupeByName(results)
	c.cache.Set(cacheKey(plan), results, int64(len(results)+1))
	return results
}

func sanitize(plan Plan) Plan {
	var cols []string
	for _, col := range plan.Columns {
		if containsString(AllowedColumns, col) {
			cols = append(cols, col)
		}
	}
	patterns := make(map[string][]string)
	for col, pats := range plan.Patterns {
		if !containsString(AllowedColumns, col) {
			continue
		}
		var clean []string
		for _, pat := range pats {
			if s := strings.TrimSpace(pat); s != "" {
				clean = append(clean, s)
			}
		}
		if len(clean) > 0 {
			patterns[col] = clean
		}
	}
	return Plan{Columns: cols, Patterns: patterns, Reason: plan.Reason}
}

func cacheKey(plan Plan) string {
	b, _ := json.Marshal(struct {
		Columns  []string            `json:"c"`
		Patterns map[string][]string `json:"p"`
	}{plan.Columns, plan.Patterns})
	return string(b)
}

func matchesAny(value string, patterns []string) bool {
	for _, pat := range patterns {
		if pat != "" && strings.Contains(value, pat) {
			return true
		}
	}
	return false
}

func lowerAll(patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = strings.ToLower(p)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func dedupeByName(products []Product) []Product {
	seen := make(map[string]bool, len(products))
	var out []Product
	for _, p := range products {
		if p.Name == "" || seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	return out
}

// Package evidence retrieves ingredient research evidence for the
// evidence agent. Rows are loaded from CSV and indexed two ways: an exact
// per-ingredient lookup, and a chromem-backed embedding index used as a
// semantic fallback when the exact lookup misses.
package evidence

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// Chunk is one piece of retrieved evidence.
type Chunk struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Snippet string   `json:"snippet"`
	Tags    []string `json:"tags"`
}

type row struct {
	ingredient string
	chunk      Chunk
}

// Embedder converts text to an embedding vector. Satisfied by the
// memory package's embedders.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index answers evidence lookups by ingredient.
type Index struct {
	rows       []row
	byName     map[string][]Chunk
	collection *chromem.Collection
	embedder   Embedder
}

// Load reads the evidence CSV. Expected columns: ingredient, study_title,
// source_url, key_findings_snippet, tags (semicolon-separated).
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open evidence: %w", err)
	}
	defer f.Close()

	rows, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse evidence %s: %w", path, err)
	}
	log.Printf("[EVIDENCE] Loaded %d evidence rows from %s", len(rows), path)
	return newIndex(rows), nil
}

// New builds an index from in-memory rows, for tests and alternative
// data sources. Chunks are registered under the given ingredient names.
func New(chunksByIngredient map[string][]Chunk) *Index {
	var rows []row
	for ing, chunks := range chunksByIngredient {
		for _, ch := range chunks {
			rows = append(rows, row{ingredient: strings.ToLower(ing), chunk: ch})
		}
	}
	return newIndex(rows)
}

func newIndex(rows []row) *Index {
	byName := make(map[string][]Chunk)
	for _, r := range rows {
		byName[r.ingredient] = append(byName[r.ingredient], r.chunk)
	}
	return &Index{rows: rows, byName: byName}
}

func parse(r io.Reader) ([]row, error) {
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
	for _, col := range []string{"ingredient", "study_title", "source_url", "key_findings_snippet"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	tagsCol, hasTags := idx["tags"]

	var rows []row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		var tags []string
		if hasTags {
			for _, t := range strings.Split(rec[tagsCol], ";") {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
		}
		rows = append(rows, row{
			ingredient: strings.ToLower(strings.TrimSpace(rec[idx["ingredient"]])),
			chunk: Chunk{
				Title:   strings.TrimSpace(rec[idx["study_title"]]),
				URL:     strings.TrimSpace(rec[idx["source_url"]]),
				Snippet: strings.TrimSpace(rec[idx["key_findings_snippet"]]),
				Tags:    tags,
			},
		})
	}
	return rows, nil
}

// EnableSemantic embeds every evidence snippet into an in-process chromem
// collection so Lookup can fall back to nearest-neighbour retrieval.
func (ix *Index) EnableSemantic(ctx context.Context, embedder Embedder) error {
	db := chromem.NewDB()
	col, err := db.CreateCollection("evidence", nil, nil)
	if err != nil {
		return fmt.Errorf("create evidence collection: %w", err)
	}

	for i, r := range ix.rows {
		text := r.chunk.Title + "\n" + r.chunk.Snippet
		emb, err := embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("embed evidence row %d: %w", i, err)
		}
		doc := chromem.Document{
			ID:        fmt.Sprintf("ev_%d", i),
			Content:   text,
			Embedding: emb,
			Metadata:  map[string]string{"ingredient": r.ingredient},
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("index evidence row %d: %w", i, err)
		}
	}

	ix.collection = col
	ix.embedder = embedder
	log.Printf("[EVIDENCE] Semantic index ready (%d rows)", len(ix.rows))
	return nil
}

// Lookup returns the evidence chunks for an ingredient. The exact
// (case-insensitive) match is authoritative; when it misses and the
// semantic index is enabled, the query falls back to embedding search.
func (ix *Index) Lookup(ctx context.Context, ingredient, query string) []Chunk {
	if chunks, ok := ix.byName[strings.ToLower(ingredient)]; ok {
		return chunks
	}
	if ix.collection == nil {
		return nil
	}
	return ix.semanticLookup(ctx, query)
}

func (ix *Index) semanticLookup(ctx context.Context, query string) []Chunk {
	emb, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("[EVIDENCE] Semantic lookup embed failed: %v", err)
		return nil
	}

	// chromem rejects nResults larger than the collection, so shrink
	// the request until it fits.
	var results []chromem.Result
	for limit := 3; limit >= 1; limit-- {
		results, err = ix.collection.QueryEmbedding(ctx, emb, limit, nil, nil)
		if err == nil {
			break
		}
	}
	if err != nil {
		log.Printf("[EVIDENCE] Semantic lookup failed: %v", err)
		return nil
	}

	var chunks []Chunk
	for _, res := range results {
		ing := res.Metadata["ingredient"]
		for _, ch := range ix.byName[ing] {
			chunks = append(chunks, ch)
		}
	}
	return dedupe(chunks)
}

func dedupe(chunks []Chunk) []Chunk {
	seen := make(map[string]bool, len(chunks))
	var out []Chunk
	for _, ch := range chunks {
		key := ch.Title + "|" + ch.Snippet
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ch)
	}
	return out
}

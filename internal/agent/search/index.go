// Package search ranks parts against free-text queries with a BM25 keyword index.
package search

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75

	// Similarity is reported in [minSimilarity, maxSimilarity], scaled against the best hit.
	minSimilarity = 0.30
	maxSimilarity = 0.95

	// ctx is polled once per this many documents.
	ctxCheckEvery = 256
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "or": {}, "the": {}, "for": {}, "with": {}, "of": {},
	"to": {}, "in": {}, "on": {}, "is": {}, "it": {}, "my": {}, "not": {}, "this": {},
	"that": {}, "i": {}, "me": {}, "do": {}, "how": {}, "what": {}, "part": {}, "parts": {},
}

type doc struct {
	part model.Part
	tf   map[string]int
	len  int
}

// Index is immutable after construction and safe for concurrent use.
type Index struct {
	docs   []doc
	idf    map[string]float64
	avgLen float64
}

// NewIndex builds the index over title, brand, description, symptoms and product types.
func NewIndex(parts []model.Part) *Index {
	idx := &Index{idf: make(map[string]float64)}
	if len(parts) == 0 {
		return idx
	}

	df := make(map[string]int)
	total := 0
	idx.docs = make([]doc, 0, len(parts))
	for _, p := range parts {
		terms := Tokenize(strings.Join([]string{
			p.Title, p.Title, p.Brand, p.Description, strings.Join(p.Symptoms, " "), p.ProductTypes,
		}, " "))
		tf := make(map[string]int, len(terms))
		for _, t := range terms {
			tf[t]++
		}
		for t := range tf {
			df[t]++
		}
		total += len(terms)
		idx.docs = append(idx.docs, doc{part: p, tf: tf, len: len(terms)})
	}

	n := float64(len(idx.docs))
	idx.avgLen = float64(total) / n
	for t, f := range df {
		idx.idf[t] = math.Log((n+1)/(float64(f)+1)) + 1
	}
	return idx
}

// Size returns the number of indexed parts.
func (idx *Index) Size() int {
	return len(idx.docs)
}

// Search returns up to topK parts ranked by BM25, with Similarity scaled to
// [0.30, 0.95]. An empty index or a done context yields ErrSearchUnavailable.
func (idx *Index) Search(ctx context.Context, query string, topK int) ([]model.ScoredPart, error) {
	if len(idx.docs) == 0 {
		return nil, errx.Wrap(errx.ErrSearchUnavailable, errEmptyIndex)
	}
	if err := ctx.Err(); err != nil {
		return nil, errx.Wrap(errx.ErrSearchUnavailable, err)
	}
	terms := dedupe(Tokenize(query))
	if len(terms) == 0 || topK <= 0 {
		return nil, nil
	}

	type hit struct {
		i     int
		score float64
	}
	hits := make([]hit, 0, 32)
	for i, d := range idx.docs {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errx.Wrap(errx.ErrSearchUnavailable, err)
			}
		}
		var score float64
		for _, t := range terms {
			f, ok := d.tf[t]
			if !ok {
				continue
			}
			tf := float64(f)
			norm := 1 - bm25B + bm25B*float64(d.len)/idx.avgLen
			score += idx.idf[t] * (tf * (bm25K1 + 1)) / (tf + bm25K1*norm)
		}
		if score > 0 {
			hits = append(hits, hit{i: i, score: score})
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	best := hits[0].score
	out := make([]model.ScoredPart, 0, len(hits))
	for _, h := range hits {
		out = append(out, model.ScoredPart{
			Part:       idx.docs[h.i].part,
			Similarity: minSimilarity + (maxSimilarity-minSimilarity)*h.score/best,
		})
	}
	return out, nil
}

// Tokenize lowercases s, splits on anything that is not a letter or digit and
// drops stop words and one-letter tokens.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

func dedupe(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

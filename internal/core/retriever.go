package core

import (
	"context"
	"log"
	"strings"

	"github.com/Qqcola/ads-price-compare/internal/store"
)

// DefaultRetrieveLimit bounds how many context documents back one answer.
const DefaultRetrieveLimit = 5

// TextSearcher is the slice of the catalog store the retriever needs.
type TextSearcher interface {
	SearchItemsText(ctx context.Context, q string, limit int) ([]store.Item, error)
}

// Retriever produces the bounded, relevance-ranked context set for a query.
type Retriever struct {
	searcher TextSearcher
}

func NewRetriever(searcher TextSearcher) *Retriever {
	return &Retriever{searcher: searcher}
}

// Retrieve never fails: a query error is logged and degraded to an empty
// result, which callers must treat as a valid outcome.
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int) []store.Item {
	query = strings.TrimSpace(query)
	if query == "" {
		return []store.Item{}
	}
	if limit <= 0 {
		limit = DefaultRetrieveLimit
	}

	items, err := r.searcher.SearchItemsText(ctx, query, limit)
	if err != nil {
		log.Printf("context retrieval failed for query %q: %v", query, err)
		return []store.Item{}
	}
	return items
}

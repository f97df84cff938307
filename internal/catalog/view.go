// Package catalog holds the pure product-view rules shared by the API
// handlers and the chat client: de-duplication of multi-retailer listings,
// retailer row extraction, pagination and title shaping.
package catalog

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Qqcola/ads-price-compare/internal/store"
)

// DedupeItems collapses duplicate catalog listings. Documents with the same
// store id are the same product; documents without one fall back to a
// normalised name+image key. Retailer price/url maps are merged, and the
// listing with more reviews wins the review stats. The result is sorted by
// cheapest offer, then name.
func DedupeItems(items []store.Item) []store.Item {
	type slot struct {
		item  store.Item
		order int
	}
	seen := make(map[string]*slot, len(items))
	var keys []string

	for _, it := range items {
		k := ItemKey(it)
		cur, ok := seen[k]
		if !ok {
			seen[k] = &slot{item: CloneListing(it), order: len(keys)}
			keys = append(keys, k)
			continue
		}
		MergeListing(&cur.item, it)
	}

	out := make([]store.Item, 0, len(keys))
	for _, k := range keys {
		out = append(out, seen[k].item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := CheapestPrice(out[i]), CheapestPrice(out[j])
		if pi != pj {
			return pi < pj
		}
		return norm(out[i].Name) < norm(out[j].Name)
	})
	return out
}

// ItemKey identifies a listing across retailers: the store id when present,
// otherwise a normalised name+image key. Shared by de-duplication and the
// saved-items list.
func ItemKey(it store.Item) string {
	if !it.OID.IsZero() {
		return "id:" + it.OID.Hex()
	}
	return "k:" + norm(it.Name) + "|" + norm(it.ImgURL)
}

// CloneListing copies an item with its own retailer maps, so later merges
// never mutate the caller's data.
func CloneListing(it store.Item) store.Item {
	cp := it
	cp.Price = cloneFloatMap(it.Price)
	cp.URL = cloneStringMap(it.URL)
	return cp
}

// MergeListing folds src's retailer offers into dst. Existing offers win;
// the listing with more reviews wins the review stats.
func MergeListing(dst *store.Item, src store.Item) {
	if dst.Price == nil {
		dst.Price = map[string]float64{}
	}
	if dst.URL == nil {
		dst.URL = map[string]string{}
	}
	mergeFloatMap(dst.Price, src.Price)
	mergeStringMap(dst.URL, src.URL)
	if src.CountReviews > dst.CountReviews {
		dst.CountReviews = src.CountReviews
		dst.AvgReviews = src.AvgReviews
	}
}

// CheapestPrice is the lowest retailer offer, or +Inf when the item has no
// priced offers (so unpriced items sort last).
func CheapestPrice(it store.Item) float64 {
	min := math.Inf(1)
	for _, p := range it.Price {
		if p < min {
			min = p
		}
	}
	return min
}

// Retailer is one row of the per-retailer offer table on an item page.
type Retailer struct {
	Key   string   `json:"key"`
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
	URL   string   `json:"url"`
}

// ExtractRetailers merges an item's price and url maps into rows sorted by
// ascending price; rows without a price sort last.
func ExtractRetailers(it store.Item) []Retailer {
	keys := make(map[string]struct{})
	for k := range it.Price {
		keys[k] = struct{}{}
	}
	for k := range it.URL {
		keys[k] = struct{}{}
	}

	rows := make([]Retailer, 0, len(keys))
	for k := range keys {
		row := Retailer{Key: k, Name: prettifyRetailer(k), URL: it.URL[k]}
		if p, ok := it.Price[k]; ok {
			price := p
			row.Price = &price
		}
		if row.Price != nil || row.URL != "" {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return retailerPrice(rows[i]) < retailerPrice(rows[j])
	})
	return rows
}

func retailerPrice(r Retailer) float64 {
	if r.Price == nil {
		return math.Inf(1)
	}
	return *r.Price
}

func prettifyRetailer(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Page is one slice of a paginated listing.
type Page struct {
	Page       int          `json:"page"`
	Total      int          `json:"total"`
	TotalPages int          `json:"totalPages"`
	Items      []store.Item `json:"items"`
}

// Paginate slices items into a clamped page: page numbers below 1 snap to
// the first page, beyond the end to the last.
func Paginate(items []store.Item, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = 20
	}
	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{Page: page, Total: total, TotalPages: totalPages, Items: items[start:end]}
}

// TruncateTitle clips a product name to at most max runes plus a single
// ellipsis, preferring to break at a space when one falls late enough.
func TruncateTitle(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	clipped := string(runes[:max+1])
	base := string(runes[:max])
	if lastSpace := strings.LastIndex(clipped, " "); lastSpace > 40 {
		base = clipped[:lastSpace]
	}
	return base + "…"
}

// ReviewsLabel is the review line shown on product cards.
func ReviewsLabel(countReviews int) string {
	if countReviews <= 0 {
		return "Not yet reviewed"
	}
	return fmt.Sprintf("%d reviews", countReviews)
}

// RankSimilar orders same-brand candidates by how many categories they
// share with the base item, most shared first. Candidate order breaks ties.
func RankSimilar(base store.Item, candidates []store.Item) []store.Item {
	baseCats := make(map[string]struct{}, len(base.Categories))
	for _, c := range base.Categories {
		baseCats[norm(c)] = struct{}{}
	}
	shared := func(it store.Item) int {
		n := 0
		for _, c := range it.Categories {
			if _, ok := baseCats[norm(c)]; ok {
				n++
			}
		}
		return n
	}

	out := make([]store.Item, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		return shared(out[i]) > shared(out[j])
	})
	return out
}

// DeriveName builds a conversation name from its first message: the first
// 30 runes plus an ellipsis marker when clipped.
func DeriveName(firstMessage string) string {
	if firstMessage == "" {
		return "New conversation"
	}
	runes := []rune(firstMessage)
	if len(runes) <= 30 {
		return firstMessage
	}
	return string(runes[:30]) + "..."
}

func norm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mergeFloatMap(dst map[string]float64, src map[string]float64) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}

func mergeStringMap(dst map[string]string, src map[string]string) {
	for k, v := range src {
		if _, ok := dst[k]; !ok && v != "" {
			dst[k] = v
		}
	}
}

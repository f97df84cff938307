package client

import (
	"fmt"
	"math"

	"github.com/Qqcola/ads-price-compare/internal/catalog"
	"github.com/Qqcola/ads-price-compare/internal/store"
)

const (
	searchPageSize = 10
	resultTitleMax = 60
)

// FormatSearchPage renders one page of search results as numbered lines
// plus a trailing page indicator. Numbering is absolute across pages so a
// result keeps its number when the user pages around.
func FormatSearchPage(items []store.Item, page int) (catalog.Page, []string) {
	p := catalog.Paginate(items, page, searchPageSize)

	lines := make([]string, 0, len(p.Items)+1)
	for i, it := range p.Items {
		n := (p.Page-1)*searchPageSize + i + 1
		lines = append(lines, fmt.Sprintf("%3d. %s  %s, %s",
			n,
			catalog.TruncateTitle(it.Name, resultTitleMax),
			formatCheapest(it),
			catalog.ReviewsLabel(it.CountReviews)))
	}
	lines = append(lines, fmt.Sprintf("page %d/%d (%d items)", p.Page, p.TotalPages, p.Total))
	return p, lines
}

// FormatRetailerLines renders an item's per-retailer offers, cheapest
// first.
func FormatRetailerLines(it store.Item) []string {
	rows := catalog.ExtractRetailers(it)
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		price := "price unknown"
		if r.Price != nil {
			price = fmt.Sprintf("$%.2f", *r.Price)
		}
		line := fmt.Sprintf("  %s: %s", r.Name, price)
		if r.URL != "" {
			line += "  " + r.URL
		}
		lines = append(lines, line)
	}
	return lines
}

// FormatFavoriteLines renders the saved list with quantity and note.
func FormatFavoriteLines(favs []FavoriteItem) []string {
	if len(favs) == 0 {
		return []string{"Your list is empty."}
	}
	lines := make([]string, 0, len(favs))
	for i, fav := range favs {
		line := fmt.Sprintf("%3d. %s x%d  %s",
			i+1,
			catalog.TruncateTitle(fav.Item.Name, resultTitleMax),
			fav.Qty,
			formatCheapest(fav.Item))
		if fav.Note != "" {
			line += "  [" + fav.Note + "]"
		}
		lines = append(lines, line)
	}
	return lines
}

func formatCheapest(it store.Item) string {
	cheapest := catalog.CheapestPrice(it)
	if math.IsInf(cheapest, 1) {
		return "no offers"
	}
	return fmt.Sprintf("from $%.2f", cheapest)
}

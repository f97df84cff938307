package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Qqcola/ads-price-compare/internal/catalog"
	"github.com/Qqcola/ads-price-compare/internal/store"
)

// FavoriteItem is one saved listing plus the user's own metadata. Note and
// Qty belong to the user and survive re-saving the same product.
type FavoriteItem struct {
	Item store.Item `json:"item"`
	Note string     `json:"note"`
	Qty  int        `json:"qty"`
}

// Favorites is the persisted "My List": saved catalog listings keyed the
// same way search de-duplication keys them, one JSON file per user so
// guest and signed-in lists never mix.
type Favorites struct {
	path  string
	items []FavoriteItem
}

// OpenFavorites loads the user's saved list, creating the data directory
// on first use. A missing file is an empty list, not an error.
func OpenFavorites(dir, userID string) (*Favorites, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create favorites dir: %w", err)
	}

	f := &Favorites{path: filepath.Join(dir, favoritesFile(userID))}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}
	if err := json.Unmarshal(data, &f.items); err != nil {
		return nil, fmt.Errorf("failed to decode favorites: %w", err)
	}
	return f, nil
}

// favoritesFile namespaces the list per user; anyone without an account
// shares the guest bucket.
func favoritesFile(userID string) string {
	userID = strings.ToLower(strings.TrimSpace(userID))
	if userID == "" || userID == "guest" {
		return "favorites_guest.json"
	}
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, userID)
	return "favorites_" + safe + ".json"
}

func (f *Favorites) Items() []FavoriteItem {
	return f.items
}

// Add upserts a listing. A listing already on the list gains any retailer
// offers the new copy carries; the user's note and quantity are untouched.
func (f *Favorites) Add(it store.Item) (string, error) {
	key := catalog.ItemKey(it)
	if i := f.find(key); i >= 0 {
		catalog.MergeListing(&f.items[i].Item, it)
		return key, f.save()
	}
	f.items = append(f.items, FavoriteItem{Item: catalog.CloneListing(it), Qty: 1})
	return key, f.save()
}

// SetNote attaches a free-form note to a saved listing.
func (f *Favorites) SetNote(key, note string) error {
	i := f.find(key)
	if i < 0 {
		return fmt.Errorf("no saved item %s", key)
	}
	f.items[i].Note = note
	return f.save()
}

// SetQty sets the wanted quantity, clamped to at least 1.
func (f *Favorites) SetQty(key string, qty int) error {
	i := f.find(key)
	if i < 0 {
		return fmt.Errorf("no saved item %s", key)
	}
	if qty < 1 {
		qty = 1
	}
	f.items[i].Qty = qty
	return f.save()
}

// Remove drops a saved listing. Removing something already gone is a no-op.
func (f *Favorites) Remove(key string) error {
	kept := f.items[:0]
	for _, fav := range f.items {
		if !f.matches(fav, key) {
			kept = append(kept, fav)
		}
	}
	f.items = kept
	return f.save()
}

// Clear empties this user's list only; other users' buckets are separate
// files and never touched.
func (f *Favorites) Clear() error {
	f.items = nil
	return f.save()
}

// find matches by listing key or by the item's external id.
func (f *Favorites) find(key string) int {
	for i, fav := range f.items {
		if f.matches(fav, key) {
			return i
		}
	}
	return -1
}

func (f *Favorites) matches(fav FavoriteItem, key string) bool {
	return catalog.ItemKey(fav.Item) == key || (fav.Item.ID != "" && fav.Item.ID == key)
}

func (f *Favorites) save() error {
	data, err := json.MarshalIndent(f.items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write favorites: %w", err)
	}
	return nil
}

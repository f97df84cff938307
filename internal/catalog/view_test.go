package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Qqcola/ads-price-compare/internal/store"
)

func TestDedupeItems(t *testing.T) {
	idA := primitive.NewObjectID()
	idB := primitive.NewObjectID()

	data := []store.Item{
		{
			OID: idA, Name: "Panadol Rapid", ImgURL: "https://img/panadol-rapid.png",
			CountReviews: 3, AvgReviews: 4.0,
			Price: map[string]float64{"chemist_warehouse": 5.49},
			URL:   map[string]string{"chemist_warehouse": "https://cw/A"},
		},
		{
			OID: idA, Name: "Panadol Rapid", ImgURL: "https://img/panadol-rapid.png",
			CountReviews: 12, AvgReviews: 4.6,
			Price: map[string]float64{"priceline": 5.99},
			URL:   map[string]string{"priceline": "https://pl/A"},
		},
		{
			Name: "Fish Oil 1000mg 400 Caps", ImgURL: "https://img/fo.png",
			Price: map[string]float64{"woolworths": 14.00},
		},
		{
			Name: "Fish Oil 1000mg 400 Caps", ImgURL: "https://img/fo.png",
			Price: map[string]float64{"coles": 14.50},
		},
		{
			OID: idB, Name: "Vitamin D3 1000IU", ImgURL: "https://img/d3.png",
			Price: map[string]float64{"chemist_warehouse": 8.99},
		},
	}

	out := DedupeItems(data)
	require.Len(t, out, 3)

	var a, fo *store.Item
	for i := range out {
		switch out[i].Name {
		case "Panadol Rapid":
			a = &out[i]
		case "Fish Oil 1000mg 400 Caps":
			fo = &out[i]
		}
	}

	require.NotNil(t, a)
	assert.Equal(t, map[string]float64{"chemist_warehouse": 5.49, "priceline": 5.99}, a.Price)
	assert.Equal(t, map[string]string{"chemist_warehouse": "https://cw/A", "priceline": "https://pl/A"}, a.URL)
	assert.Equal(t, 12, a.CountReviews)
	assert.Equal(t, 4.6, a.AvgReviews)

	require.NotNil(t, fo)
	assert.Equal(t, map[string]float64{"woolworths": 14.00, "coles": 14.50}, fo.Price)

	// Sorted by cheapest offer: Panadol (5.49), Vitamin D3 (8.99), Fish Oil (14.00).
	assert.Equal(t, "Panadol Rapid", out[0].Name)
	assert.Equal(t, "Vitamin D3 1000IU", out[1].Name)
	assert.Equal(t, "Fish Oil 1000mg 400 Caps", out[2].Name)
}

func TestDedupeItemsKeepsUnpricedLast(t *testing.T) {
	out := DedupeItems([]store.Item{
		{Name: "No offers", ImgURL: "x"},
		{Name: "Cheap", ImgURL: "y", Price: map[string]float64{"coles": 1.00}},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "Cheap", out[0].Name)
}

func TestExtractRetailers(t *testing.T) {
	p37 := 37.47
	p62 := 62.99
	it := store.Item{
		Price: map[string]float64{"chemist_warehouse": p37, "chemist_outlet": p62},
		URL:   map[string]string{"chemist_outlet": "https://co/item", "chemist_warehouse": "https://cw/item"},
	}

	rows := ExtractRetailers(it)
	require.Len(t, rows, 2)
	assert.Equal(t, "chemist_warehouse", rows[0].Key)
	assert.Equal(t, "Chemist Warehouse", rows[0].Name)
	assert.Equal(t, "https://cw/item", rows[0].URL)
	require.NotNil(t, rows[0].Price)
	assert.Equal(t, p37, *rows[0].Price)

	assert.Equal(t, "chemist_outlet", rows[1].Key)
	assert.Equal(t, "https://co/item", rows[1].URL)
}

func TestExtractRetailersURLOnly(t *testing.T) {
	rows := ExtractRetailers(store.Item{
		URL: map[string]string{"amazon": "https://amazon/item"},
	})
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Price)
	assert.Equal(t, "Amazon", rows[0].Name)
}

func TestPaginate(t *testing.T) {
	items := make([]store.Item, 51)

	r := Paginate(items, 1, 20)
	assert.Len(t, r.Items, 20)
	assert.Equal(t, 51, r.Total)
	assert.Equal(t, 3, r.TotalPages)

	assert.Len(t, Paginate(items, 3, 20).Items, 11)

	// Page bounds clamp.
	assert.Equal(t, 1, Paginate(items, 0, 20).Page)
	assert.Equal(t, 3, Paginate(items, 99, 20).Page)

	empty := Paginate(nil, 1, 20)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Empty(t, empty.Items)
}

func TestTruncateTitle(t *testing.T) {
	short := "Short title"
	assert.Equal(t, short, TruncateTitle(short, 58))

	long := "This is a very long product name that should be truncated somewhere sensible to fit two lines nicely"
	out := TruncateTitle(long, 58)
	assert.True(t, strings.HasSuffix(out, "…"), "expected ellipsis, got %q", out)
	assert.LessOrEqual(t, len([]rune(out)), 59)

	// Prefers breaking at a space instead of mid-word.
	wordy := "Panadol Paracetamol Pain Relief 500mg Optizorb Caplets Extra Something"
	outWordy := TruncateTitle(wordy, 58)
	trimmed := strings.TrimSuffix(outWordy, "…")
	assert.False(t, strings.HasSuffix(trimmed, " "))
	assert.True(t, strings.Contains(wordy, trimmed))
}

func TestReviewsLabel(t *testing.T) {
	assert.Equal(t, "12 reviews", ReviewsLabel(12))
	assert.Equal(t, "Not yet reviewed", ReviewsLabel(0))
	assert.Equal(t, "Not yet reviewed", ReviewsLabel(-1))
}

func TestRankSimilar(t *testing.T) {
	base := store.Item{ID: "2728073", Brand: "Panadol", Categories: []string{"pain relief", "paracetamol"}}
	candidates := []store.Item{
		{ID: "1", Brand: "Panadol", Categories: []string{"cold and flu"}},
		{ID: "2", Brand: "Panadol", Categories: []string{"pain relief", "paracetamol"}},
		{ID: "3", Brand: "Panadol", Categories: []string{"pain relief"}},
	}

	ranked := RankSimilar(base, candidates)
	require.Len(t, ranked, 3)
	assert.Equal(t, "2", ranked[0].ID)
	assert.Equal(t, "3", ranked[1].ID)
	assert.Equal(t, "1", ranked[2].ID)
	for _, it := range ranked {
		assert.Equal(t, base.Brand, it.Brand)
	}
}

func TestDeriveName(t *testing.T) {
	assert.Equal(t, "New conversation", DeriveName(""))
	assert.Equal(t, "short question", DeriveName("short question"))

	long := "what is the cheapest paracetamol with fast shipping"
	name := DeriveName(long)
	assert.Equal(t, string([]rune(long)[:30])+"...", name)
}

func TestItemKey(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, "id:"+oid.Hex(), ItemKey(store.Item{OID: oid, Name: "ignored"}))
	assert.Equal(t,
		ItemKey(store.Item{Name: "  Panadol  20 Tablets ", ImgURL: "IMG"}),
		ItemKey(store.Item{Name: "panadol 20 tablets", ImgURL: "img"}),
	)
	assert.NotEqual(t,
		ItemKey(store.Item{Name: "Panadol", ImgURL: "a"}),
		ItemKey(store.Item{Name: "Panadol", ImgURL: "b"}),
	)
}

func TestMergeListing(t *testing.T) {
	dst := store.Item{
		Price:        map[string]float64{"chemist_warehouse": 5.99},
		AvgReviews:   4.0,
		CountReviews: 10,
	}
	MergeListing(&dst, store.Item{
		Price:        map[string]float64{"chemist_warehouse": 9.99, "priceline": 6.49},
		URL:          map[string]string{"priceline": "https://priceline.example/p"},
		AvgReviews:   4.5,
		CountReviews: 25,
	})

	assert.Equal(t, 5.99, dst.Price["chemist_warehouse"], "existing offers win")
	assert.Equal(t, 6.49, dst.Price["priceline"])
	assert.Equal(t, "https://priceline.example/p", dst.URL["priceline"])
	assert.Equal(t, 25, dst.CountReviews)
	assert.Equal(t, 4.5, dst.AvgReviews)
}

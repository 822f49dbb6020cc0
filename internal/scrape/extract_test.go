package scrape

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/config"
)

func defaultSelectors() config.SelectorsConfig {
	return config.SelectorsConfig{
		ListingLinks: `[data-cy="l-card"] a[href*="/d/oferty/"]`,
		Title:        `h1, h4[data-cy="ad_title"]`,
		Price:        `h3[data-testid="ad-price-container"]`,
		Description:  `[data-cy="ad_description"]`,
		LocationDate: `[data-testid="location-date"]`,
		Images:       `[data-testid="swiper-image-slide"] img, .swiper-slide img`,
	}
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want *float64
	}{
		{"1 299 zł", ptr(1299.0)},
		{"1,5 zł", ptr(1.5)},
		{"3500", ptr(3500.0)},
		{"do negocjacji 450 zł", ptr(450.0)},
		{"Za darmo", nil},
		{"Zamienię", nil},
		{"", nil},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got := ParsePrice(tc.raw)
			if tc.want == nil {
				require.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.InDelta(t, *tc.want, *got, 0.001)
		})
	}
}

func TestCurrency(t *testing.T) {
	t.Parallel()

	require.Equal(t, "PLN", Currency("1 299 zł"))
	require.Equal(t, "PLN", Currency("450 PLN"))
	require.Equal(t, "EUR", Currency("120 €"))
	require.Equal(t, "USD", Currency("$99"))
	require.Equal(t, "", Currency("1299"))
}

func TestExtractIDFromURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc123XY",
		ExtractIDFromURL("https://www.olx.pl/d/oferty/karta-graficzna-rtx-3060-IDabc123XY.html"))
	require.Equal(t, "", ExtractIDFromURL("https://www.olx.pl/d/oferty/q-rtx-3060/"))
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "RTX 3060 12GB", CleanText("  RTX\n\t3060   12GB \n"))
	require.Equal(t, "", CleanText("   \n\t "))
}

func TestExtractor_ListingLinks(t *testing.T) {
	t.Parallel()

	page := Page{
		URL: "https://www.olx.pl/d/oferty/q-rtx-3060/",
		Body: []byte(`<html><body>
			<div data-cy="l-card"><a href="/d/oferty/rtx-3060-IDaaa.html">one</a></div>
			<div data-cy="l-card"><a href="/d/oferty/rtx-3060-IDbbb.html">two</a></div>
			<div data-cy="l-card"><a href="/d/oferty/rtx-3060-IDaaa.html">duplicate</a></div>
			<div><a href="/d/oferty/unrelated-IDccc.html">outside card</a></div>
		</body></html>`),
	}

	e := NewExtractor(defaultSelectors(), zap.NewNop())
	links, err := e.ListingLinks(page, "https://www.olx.pl")
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://www.olx.pl/d/oferty/rtx-3060-IDaaa.html",
		"https://www.olx.pl/d/oferty/rtx-3060-IDbbb.html",
	}, links)
}

func TestExtractor_Listing(t *testing.T) {
	t.Parallel()

	page := Page{
		URL: "https://www.olx.pl/d/oferty/rtx-3060-IDaaa.html",
		Body: []byte(`<html><body>
			<h1>  RTX 3060   12GB </h1>
			<h3 data-testid="ad-price-container">1 299 zł</h3>
			<div data-cy="ad_description">Sprzedam kartę, stan idealny.</div>
			<p data-testid="location-date">Warszawa, Mokotów - 25 sierpnia 2025</p>
			<div data-testid="swiper-image-slide"><img src="https://img.example.com/1.jpg"></div>
			<div data-testid="swiper-image-slide"><img src="https://img.example.com/2.jpg"></div>
			<div data-testid="swiper-image-slide"><img src="https://img.example.com/1.jpg"></div>
		</body></html>`),
	}

	e := NewExtractor(defaultSelectors(), zap.NewNop())
	rec, err := e.Listing(page, "rtx 3060")
	require.NoError(t, err)

	require.Equal(t, "https://www.olx.pl/d/oferty/rtx-3060-IDaaa.html", rec.URL)
	require.Equal(t, "aaa", rec.ID)
	require.Equal(t, "RTX 3060 12GB", rec.Title)
	require.NotNil(t, rec.Price)
	require.InDelta(t, 1299.0, *rec.Price, 0.001)
	require.Equal(t, "PLN", rec.Currency)
	require.Equal(t, "Sprzedam kartę, stan idealny.", rec.Description)
	require.Equal(t, "Warszawa, Mokotów", rec.Location)
	require.Equal(t, "25 sierpnia 2025", rec.PostedDate)
	require.Equal(t, []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"}, rec.Images)
	require.Equal(t, "rtx 3060", rec.SearchQuery)
	require.False(t, rec.ScrapedAt.IsZero())
}

func TestExtractor_Listing_PartialFields(t *testing.T) {
	t.Parallel()

	page := Page{
		URL:  "https://www.olx.pl/d/oferty/tajemnicza-IDzzz.html",
		Body: []byte(`<html><body><h1>Tylko tytuł</h1></body></html>`),
	}

	e := NewExtractor(defaultSelectors(), zap.NewNop())
	rec, err := e.Listing(page, "gpu")
	require.NoError(t, err)
	require.Equal(t, "Tylko tytuł", rec.Title)
	require.Nil(t, rec.Price)
	require.Empty(t, rec.Description)
	require.Empty(t, rec.Images)
}

func ptr(v float64) *float64 { return &v }

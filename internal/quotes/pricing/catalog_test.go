package pricing

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"agency_backend/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogLoads(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)

	vitrine, ok := cat.Offer("vitrine")
	require.True(t, ok)
	assert.True(t, vitrine.BasePrice.Equal(d("500")))
	assert.True(t, cat.PricePerPage.Equal(d("50")))

	seo, ok := cat.Option("seo")
	require.True(t, ok)
	assert.Equal(t, OptionFlat, seo.Kind)
}

func TestResolveBuildsSnapshot(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)

	project, err := cat.Resolve(Selection{
		OfferType:   "vitrine",
		ExtraPages:  3,
		Options:     []OptionChoice{{Key: "seo"}, {Key: "maintenance", Quantity: 12}},
		Description: "<b>Site</b> pour une boulangerie",
	}, TaxRegime{Enabled: true, Rate: d("0.2")})
	require.NoError(t, err)

	assert.Equal(t, "Site pour une boulangerie", project.Description)
	assert.True(t, project.VATRate.Equal(d("0.2")))
	require.Len(t, project.Options, 2)
	assert.Equal(t, 1, project.Options[0].Quantity)

	amounts, err := ComputeAmounts(project, 0)
	require.NoError(t, err)
	// 500 + 150 pages + 150 seo + 360 maintenance
	assert.True(t, amounts.HT.Equal(d("1160")), "ht %s", amounts.HT)
	assert.True(t, amounts.TVA.Equal(d("232")))
}

func TestResolveExemptRegimeStoresZeroRate(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)

	project, err := cat.Resolve(Selection{OfferType: "landing"}, TaxRegime{Enabled: false, Rate: d("0.2")})
	require.NoError(t, err)
	assert.True(t, project.VATRate.IsZero())
}

func TestResolveRejectsUnknownKeys(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)

	_, err = cat.Resolve(Selection{OfferType: "castle"}, TaxRegime{})
	require.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = cat.Resolve(Selection{OfferType: "vitrine", Options: []OptionChoice{{Key: "teleport"}}}, TaxRegime{})
	require.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = cat.Resolve(Selection{OfferType: "vitrine", ExtraPages: -2}, TaxRegime{})
	require.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = cat.Resolve(Selection{OfferType: "vitrine", Options: []OptionChoice{{Key: "seo"}, {Key: "seo"}}}, TaxRegime{})
	require.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = cat.Resolve(Selection{OfferType: "vitrine", Options: []OptionChoice{{Key: "maintenance", Quantity: 0}}}, TaxRegime{})
	require.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
price_per_page: "45"
offers:
  - key: vitrine
    label: Vitrine
    base_price: "450"
options:
  - key: seo
    label: SEO
    kind: flat
    unit_price: "99.90"
`), 0o600))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "EUR", cat.Currency)
	offer, ok := cat.Offer("vitrine")
	require.True(t, ok)
	assert.True(t, offer.BasePrice.Equal(d("450")))
}

func TestParseCatalogRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"no offers":     `price_per_page: "50"`,
		"bad price":     "price_per_page: \"50\"\noffers:\n  - key: a\n    base_price: abc\n",
		"sub-cent":      "price_per_page: \"50.001\"\noffers:\n  - key: a\n    base_price: \"1\"\n",
		"unknown kind":  "price_per_page: \"50\"\noffers:\n  - key: a\n    base_price: \"1\"\noptions:\n  - key: o\n    kind: monthly\n    unit_price: \"1\"\n",
		"dup offer":     "price_per_page: \"50\"\noffers:\n  - key: a\n    base_price: \"1\"\n  - key: a\n    base_price: \"2\"\n",
		"invalid yaml":  "offers: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

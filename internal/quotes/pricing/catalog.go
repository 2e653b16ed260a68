package pricing

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"agency_backend/platform/apperr"
	"agency_backend/platform/sanitize"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

const maxDescriptionLength = 4000

// Offer is a base offering with its fixed price.
type Offer struct {
	Key           string          `json:"key"`
	Label         string          `json:"label"`
	BasePrice     decimal.Decimal `json:"basePrice"`
	IncludedPages int             `json:"includedPages"`
}

// Option is a selectable add-on.
type Option struct {
	Key       string          `json:"key"`
	Label     string          `json:"label"`
	Kind      OptionKind      `json:"kind"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// TaxRegime says whether VAT is charged and at which rate.
type TaxRegime struct {
	Enabled bool
	Rate    decimal.Decimal
}

// EffectiveRate is the rate stored on new projects: zero when exempt.
func (r TaxRegime) EffectiveRate() decimal.Decimal {
	if !r.Enabled {
		return decimal.Zero
	}
	return r.Rate
}

// Catalog is the agency's price list.
type Catalog struct {
	Currency     string          `json:"currency"`
	PricePerPage decimal.Decimal `json:"pricePerPage"`
	Offers       []Offer         `json:"offers"`
	Options      []Option        `json:"options"`

	offers  map[string]Offer
	options map[string]Option
}

type catalogFile struct {
	Currency     string `yaml:"currency"`
	PricePerPage string `yaml:"price_per_page"`
	Offers       []struct {
		Key           string `yaml:"key"`
		Label         string `yaml:"label"`
		BasePrice     string `yaml:"base_price"`
		IncludedPages int    `yaml:"included_pages"`
	} `yaml:"offers"`
	Options []struct {
		Key       string `yaml:"key"`
		Label     string `yaml:"label"`
		Kind      string `yaml:"kind"`
		UnitPrice string `yaml:"unit_price"`
	} `yaml:"options"`
}

// DefaultCatalog returns the built-in price list.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// LoadCatalog reads a YAML price list from path, or the built-in one when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and checks a YAML price list.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw catalogFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode pricing catalog: %w", err)
	}

	perPage, err := parseCatalogPrice("price_per_page", raw.PricePerPage)
	if err != nil {
		return nil, err
	}

	cat := &Catalog{
		Currency:     raw.Currency,
		PricePerPage: perPage,
		offers:       make(map[string]Offer, len(raw.Offers)),
		options:      make(map[string]Option, len(raw.Options)),
	}
	if cat.Currency == "" {
		cat.Currency = "EUR"
	}

	for _, o := range raw.Offers {
		price, err := parseCatalogPrice("offer "+o.Key, o.BasePrice)
		if err != nil {
			return nil, err
		}
		if o.Key == "" {
			return nil, fmt.Errorf("pricing catalog: offer without key")
		}
		if _, dup := cat.offers[o.Key]; dup {
			return nil, fmt.Errorf("pricing catalog: duplicate offer %q", o.Key)
		}
		offer := Offer{Key: o.Key, Label: o.Label, BasePrice: price, IncludedPages: o.IncludedPages}
		cat.offers[o.Key] = offer
		cat.Offers = append(cat.Offers, offer)
	}
	if len(cat.Offers) == 0 {
		return nil, fmt.Errorf("pricing catalog: no offers")
	}

	for _, o := range raw.Options {
		price, err := parseCatalogPrice("option "+o.Key, o.UnitPrice)
		if err != nil {
			return nil, err
		}
		kind := OptionKind(o.Kind)
		if kind != OptionFlat && kind != OptionPerUnit {
			return nil, fmt.Errorf("pricing catalog: option %q has unknown kind %q", o.Key, o.Kind)
		}
		if _, dup := cat.options[o.Key]; dup || o.Key == "" {
			return nil, fmt.Errorf("pricing catalog: invalid or duplicate option key %q", o.Key)
		}
		option := Option{Key: o.Key, Label: o.Label, Kind: kind, UnitPrice: price}
		cat.options[o.Key] = option
		cat.Options = append(cat.Options, option)
	}

	return cat, nil
}

func parseCatalogPrice(what, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("pricing catalog: %s: invalid price %q", what, value)
	}
	if err := validatePrice(what, d); err != nil {
		return decimal.Zero, fmt.Errorf("pricing catalog: %s: %w", what, err)
	}
	return d, nil
}

// Offer looks up an offer by key.
func (c *Catalog) Offer(key string) (Offer, bool) {
	o, ok := c.offers[key]
	return o, ok
}

// Option looks up an option by key.
func (c *Catalog) Option(key string) (Option, bool) {
	o, ok := c.options[key]
	return o, ok
}

// OptionChoice is one option requested by the client.
type OptionChoice struct {
	Key      string
	Quantity int
}

// Selection is what a client picks in the funnel, before prices are attached.
type Selection struct {
	OfferType   string
	ExtraPages  int
	Options     []OptionChoice
	Description string
}

// Resolve turns a selection into a priced Project under regime. Unknown
// offers or options and negative counts are validation errors naming the
// offending field.
func (c *Catalog) Resolve(sel Selection, regime TaxRegime) (Project, error) {
	offer, ok := c.Offer(sel.OfferType)
	if !ok {
		return Project{}, apperr.FieldValidation("offerType", "unknown offer "+sel.OfferType)
	}
	if sel.ExtraPages < 0 {
		return Project{}, apperr.FieldValidation("extraPages", "extra pages must not be negative")
	}

	project := Project{
		OfferType:    offer.Key,
		OfferLabel:   offer.Label,
		BasePrice:    offer.BasePrice,
		ExtraPages:   sel.ExtraPages,
		PricePerPage: c.PricePerPage,
		Options:      make([]SelectedOption, 0, len(sel.Options)),
		VATRate:      regime.EffectiveRate(),
		Description:  sanitize.Truncated(sel.Description, maxDescriptionLength),
	}

	for i, choice := range sel.Options {
		opt, ok := c.Option(choice.Key)
		if !ok {
			return Project{}, apperr.FieldValidation(fmt.Sprintf("options[%d].key", i), "unknown option "+choice.Key)
		}
		qty := choice.Quantity
		if opt.Kind == OptionFlat && qty == 0 {
			qty = 1
		}
		if qty < 1 {
			return Project{}, apperr.FieldValidation(fmt.Sprintf("options[%d].quantity", i), "option quantity must be at least 1")
		}
		project.Options = append(project.Options, SelectedOption{
			Key:       opt.Key,
			Label:     opt.Label,
			Kind:      opt.Kind,
			UnitPrice: opt.UnitPrice,
			Quantity:  qty,
		})
	}

	// Run the engine's own checks so a bad selection fails before anything
	// is persisted.
	if err := validateProject(project, 0); err != nil {
		return Project{}, err
	}
	return project, nil
}

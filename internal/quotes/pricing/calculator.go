// Package pricing computes quote amounts from a project selection. It has no
// I/O and no clock: the same project and discount always give the same
// amounts, which is what lets a stored quote be recomputed and compared.
package pricing

import (
	"fmt"

	"agency_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

// OptionKind tells how an option line is priced.
type OptionKind string

const (
	// OptionFlat is a one-off fee.
	OptionFlat OptionKind = "flat"
	// OptionPerUnit is quantity * unit price.
	OptionPerUnit OptionKind = "per_unit"
)

// LineKind identifies a line of the itemized amounts.
type LineKind string

const (
	LineBase   LineKind = "base"
	LinePages  LineKind = "pages"
	LineOption LineKind = "option"
)

// centPlaces is the number of decimals of the currency unit.
const centPlaces = 2

var hundred = decimal.NewFromInt(100)

// SelectedOption is an option line as priced at selection time.
type SelectedOption struct {
	Key       string          `json:"key"`
	Label     string          `json:"label"`
	Kind      OptionKind      `json:"kind"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Project is the priced description of what the client asked for. Prices and
// the VAT rate are copied from the catalogue when the quote is created, so
// later catalogue edits never change an issued quote.
type Project struct {
	OfferType    string           `json:"offerType"`
	OfferLabel   string           `json:"offerLabel"`
	BasePrice    decimal.Decimal  `json:"basePrice"`
	ExtraPages   int              `json:"extraPages"`
	PricePerPage decimal.Decimal  `json:"pricePerPage"`
	Options      []SelectedOption `json:"options"`
	// VATRate is a fraction (0.20). Zero means the regime is VAT exempt.
	VATRate     decimal.Decimal `json:"vatRate"`
	Description string          `json:"description"`
}

// Line is one row of the itemized amounts.
type Line struct {
	Kind      LineKind        `json:"kind"`
	Key       string          `json:"key"`
	Label     string          `json:"label"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

// Amounts is the computed price of a project.
type Amounts struct {
	Base         decimal.Decimal `json:"base"`
	OptionsTotal decimal.Decimal `json:"optionsTotal"`
	Discount     decimal.Decimal `json:"discount"`
	HT           decimal.Decimal `json:"ht"`
	TVA          decimal.Decimal `json:"tva"`
	TTC          decimal.Decimal `json:"ttc"`
	Lines        []Line          `json:"lineDetails"`
}

// Equal reports whether two amounts are numerically identical, line by line.
func (a Amounts) Equal(b Amounts) bool {
	if !a.Base.Equal(b.Base) || !a.OptionsTotal.Equal(b.OptionsTotal) || !a.Discount.Equal(b.Discount) ||
		!a.HT.Equal(b.HT) || !a.TVA.Equal(b.TVA) || !a.TTC.Equal(b.TTC) || len(a.Lines) != len(b.Lines) {
		return false
	}
	for i := range a.Lines {
		l, r := a.Lines[i], b.Lines[i]
		if l.Kind != r.Kind || l.Key != r.Key || l.Quantity != r.Quantity ||
			!l.UnitPrice.Equal(r.UnitPrice) || !l.Total.Equal(r.Total) {
			return false
		}
	}
	return true
}

// ComputeAmounts prices project with an affiliate discount of discountPercent.
//
// The discount is taken from the base offer only; pages and options are never
// discounted. Rounding (half-up, to the cent) happens on the discount and on
// the totals, never on individual lines.
func ComputeAmounts(project Project, discountPercent int) (Amounts, error) {
	if err := validateProject(project, discountPercent); err != nil {
		return Amounts{}, err
	}

	lines := make([]Line, 0, len(project.Options)+2)
	base := project.BasePrice
	lines = append(lines, Line{
		Kind:      LineBase,
		Key:       project.OfferType,
		Label:     project.OfferLabel,
		Quantity:  1,
		UnitPrice: base,
		Total:     base,
	})

	optionsTotal := decimal.Zero
	if project.ExtraPages > 0 {
		pages := project.PricePerPage.Mul(decimal.NewFromInt(int64(project.ExtraPages)))
		optionsTotal = optionsTotal.Add(pages)
		lines = append(lines, Line{
			Kind:      LinePages,
			Key:       "extra_pages",
			Label:     "Pages supplémentaires",
			Quantity:  project.ExtraPages,
			UnitPrice: project.PricePerPage,
			Total:     pages,
		})
	}

	for _, opt := range project.Options {
		if opt.Quantity == 0 {
			continue
		}
		total := optionLineTotal(opt)
		optionsTotal = optionsTotal.Add(total)
		lines = append(lines, Line{
			Kind:      LineOption,
			Key:       opt.Key,
			Label:     opt.Label,
			Quantity:  opt.Quantity,
			UnitPrice: opt.UnitPrice,
			Total:     total,
		})
	}

	discount := computeDiscount(base, discountPercent)
	ht := base.Sub(discount).Add(optionsTotal).Round(centPlaces)
	tva := decimal.Zero
	if !project.VATRate.IsZero() {
		tva = ht.Mul(project.VATRate).Round(centPlaces)
	}

	return Amounts{
		Base:         base,
		OptionsTotal: optionsTotal,
		Discount:     discount,
		HT:           ht,
		TVA:          tva,
		TTC:          ht.Add(tva),
		Lines:        lines,
	}, nil
}

// computeDiscount returns round(base * percent / 100) to the cent.
func computeDiscount(base decimal.Decimal, percent int) decimal.Decimal {
	if percent == 0 {
		return decimal.Zero
	}
	return base.Mul(decimal.NewFromInt(int64(percent))).Div(hundred).Round(centPlaces)
}

func optionLineTotal(opt SelectedOption) decimal.Decimal {
	if opt.Kind == OptionFlat {
		return opt.UnitPrice
	}
	return opt.UnitPrice.Mul(decimal.NewFromInt(int64(opt.Quantity)))
}

func validateProject(project Project, discountPercent int) error {
	if discountPercent < 0 || discountPercent > 100 {
		return apperr.FieldValidation("discountPercent", "discount percent must be between 0 and 100")
	}
	if project.ExtraPages < 0 {
		return apperr.FieldValidation("extraPages", "extra pages must not be negative")
	}
	if err := validatePrice("basePrice", project.BasePrice); err != nil {
		return err
	}
	if err := validatePrice("pricePerPage", project.PricePerPage); err != nil {
		return err
	}
	if project.VATRate.IsNegative() || project.VATRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return apperr.FieldValidation("vatRate", "VAT rate must be a fraction between 0 and 1")
	}

	seen := make(map[string]struct{}, len(project.Options))
	for i, opt := range project.Options {
		field := fmt.Sprintf("options[%d]", i)
		if opt.Key == "" {
			return apperr.FieldValidation(field+".key", "option key is required")
		}
		if _, dup := seen[opt.Key]; dup {
			return apperr.FieldValidation(field+".key", "option "+opt.Key+" is selected twice")
		}
		seen[opt.Key] = struct{}{}

		if opt.Quantity < 0 {
			return apperr.FieldValidation(field+".quantity", "option quantity must not be negative")
		}
		switch opt.Kind {
		case OptionFlat:
			if opt.Quantity > 1 {
				return apperr.FieldValidation(field+".quantity", "flat option "+opt.Key+" cannot be taken more than once")
			}
		case OptionPerUnit:
		default:
			return apperr.FieldValidation(field+".kind", "unknown option kind "+string(opt.Kind))
		}
		if err := validatePrice(field+".unitPrice", opt.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

// validatePrice rejects negative prices and sub-cent precision. Whole-cent
// inputs keep every line exact, so the totals identity holds without
// rounding individual lines.
func validatePrice(field string, price decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.FieldValidation(field, "price must not be negative")
	}
	if !price.Equal(price.Round(centPlaces)) {
		return apperr.FieldValidation(field, "price must be expressed in whole cents")
	}
	return nil
}

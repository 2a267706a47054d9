// Package catalog provides the product catalog.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/types"
)

// Kind classifies a product. It replaces the legacy convention of encoding
// the kind as a prefix on the product code; behavior (stock vs expense,
// code display) derives from this field, never from string matching.
type Kind string

const (
	KindStandard Kind = "standard"
	KindSpecial  Kind = "special"
	KindSalesAid Kind = "sales_aid"
	KindLimited  Kind = "limited"
)

// Legacy code prefixes, still present in imported data.
const (
	prefixSpecial  = "ESPECIAL-"
	prefixSalesAid = "ADVENTA-"
	prefixLimited  = "ELIMITADA-"
)

// KindFromCode maps a legacy-prefixed product code to its kind.
// Used when importing catalogs that predate the explicit kind field.
func KindFromCode(code string) Kind {
	switch {
	case strings.HasPrefix(code, prefixSalesAid):
		return KindSalesAid
	case strings.HasPrefix(code, prefixSpecial):
		return KindSpecial
	case strings.HasPrefix(code, prefixLimited):
		return KindLimited
	default:
		return KindStandard
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindStandard, KindSpecial, KindSalesAid, KindLimited:
		return true
	}
	return false
}

// CarriesStock reports whether products of this kind receive stock batches.
// Sales-aid products are expensed at purchase time and never hold inventory.
func (k Kind) CarriesStock() bool {
	return k != KindSalesAid
}

// Product is a catalog entry keyed by its natural code.
type Product struct {
	Code        string      `db:"code" json:"code"`
	Kind        Kind        `db:"kind" json:"kind"`
	Description string      `db:"description" json:"description"`
	ListPrice   types.Money `db:"list_price" json:"listPrice"`
	// OfferPrice of zero means no active offer; when positive it is the
	// effective current price.
	OfferPrice types.Money `db:"offer_price" json:"offerPrice"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updatedAt"`
}

// EffectivePrice returns the offer price when set, otherwise the list price.
func (p *Product) EffectivePrice() types.Money {
	if p.OfferPrice.IsPositive() {
		return p.OfferPrice
	}
	return p.ListPrice
}

// Validate checks product invariants.
func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Code) == "" {
		return apperror.NewValidation("product code is required").
			WithDetail("field", "code")
	}
	if strings.TrimSpace(p.Description) == "" {
		return apperror.NewValidation("description is required").
			WithDetail("field", "description")
	}
	if !p.Kind.Valid() {
		return apperror.NewValidation("unknown product kind").
			WithDetail("field", "kind").
			WithDetail("value", string(p.Kind))
	}
	if p.ListPrice.IsNegative() {
		return apperror.NewValidation("list price must not be negative").
			WithDetail("field", "listPrice")
	}
	if p.OfferPrice.IsNegative() {
		return apperror.NewValidation("offer price must not be negative").
			WithDetail("field", "offerPrice")
	}
	return nil
}

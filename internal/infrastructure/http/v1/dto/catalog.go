package dto

import (
	"github.com/guillermodiarte/crmsys/internal/core/types"
	"github.com/guillermodiarte/crmsys/internal/domain/catalog"
)

// ProductRequest for creating or updating a product.
type ProductRequest struct {
	Code        string      `json:"code" binding:"required"`
	Kind        string      `json:"kind"`
	Description string      `json:"description" binding:"required"`
	ListPrice   types.Money `json:"listPrice"`
	OfferPrice  types.Money `json:"offerPrice"`
}

// ToProduct converts the request to a domain product.
func (r *ProductRequest) ToProduct() *catalog.Product {
	return &catalog.Product{
		Code:        r.Code,
		Kind:        catalog.Kind(r.Kind),
		Description: r.Description,
		ListPrice:   r.ListPrice,
		OfferPrice:  r.OfferPrice,
	}
}

// BulkImportRequest for bulk product import.
type BulkImportRequest struct {
	Products []ProductRequest `json:"products" binding:"required"`
}

// PriceUpdateRequest applies a percentage change to all list prices.
type PriceUpdateRequest struct {
	Percentage types.Money `json:"percentage"`
}

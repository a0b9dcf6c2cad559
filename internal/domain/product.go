package domain

import "time"

// ProductStatus is the publication state of a product.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
)

// Product is a catalog item. Prices are in kuruş.
type Product struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Slug       string        `json:"slug"`
	CategoryID string        `json:"categoryId"`
	CampaignID *string       `json:"campaignId,omitempty"`
	Price      int64         `json:"price"`
	SalePrice  *int64        `json:"salePrice,omitempty"`
	Status     ProductStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// BasePrice returns the price campaign discounts apply to: the sale
// price when set, otherwise the list price.
func (p *Product) BasePrice() int64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// Category is a catalog category.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PricedProduct is a product decorated with its campaign-adjusted price
// for storefront listings.
type PricedProduct struct {
	Product
	FinalPrice        int64   `json:"finalPrice"`
	OriginalPrice     *int64  `json:"originalPrice,omitempty"`
	HasCampaign       bool    `json:"hasCampaign"`
	CampaignTitle     string  `json:"campaignTitle,omitempty"`
	MinPurchaseAmount int64   `json:"minPurchaseAmount"`
	DiscountPercent   float64 `json:"discountPercent,omitempty"`
}

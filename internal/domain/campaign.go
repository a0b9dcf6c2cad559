package domain

import (
	"strings"
	"time"
)

// CampaignType classifies what a campaign applies to.
type CampaignType string

const (
	// CampaignTypeGeneral applies to the whole cart.
	CampaignTypeGeneral CampaignType = "GENERAL"
	// CampaignTypeCategory applies to items in the linked categories.
	CampaignTypeCategory CampaignType = "CATEGORY"
	// CampaignTypeProduct applies to the linked products only.
	CampaignTypeProduct CampaignType = "PRODUCT"
	// CampaignTypePackage is a bundle deal: buy the listed products
	// together at a fixed package price.
	CampaignTypePackage CampaignType = "PACKAGE"
)

// Valid reports whether t is a known campaign type.
func (t CampaignType) Valid() bool {
	switch t {
	case CampaignTypeGeneral, CampaignTypeCategory, CampaignTypeProduct, CampaignTypePackage:
		return true
	}
	return false
}

// PackageProduct is one line of a PACKAGE campaign's bundle definition.
type PackageProduct struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Campaign is a discount campaign. Monetary fields are in kuruş.
type Campaign struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Type              CampaignType     `json:"type"`
	Code              string           `json:"code,omitempty"`
	DiscountPercent   float64          `json:"discountPercent"`
	DiscountAmount    int64            `json:"discountAmount"`
	PackagePrice      *int64           `json:"packagePrice,omitempty"`
	MinPurchaseAmount int64            `json:"minPurchaseAmount"`
	StartDate         time.Time        `json:"startDate"`
	EndDate           time.Time        `json:"endDate"`
	IsActive          bool             `json:"isActive"`
	CategoryIDs       []string         `json:"categoryIds,omitempty"`
	ProductIDs        []string         `json:"productIds,omitempty"`
	PackageProducts   []PackageProduct `json:"packageProducts,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// IsLiveAt reports whether the campaign is active and now falls inside
// its date window. Both endpoints are inclusive.
func (c *Campaign) IsLiveAt(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.StartDate) {
		return false
	}
	if now.After(c.EndDate) {
		return false
	}
	return true
}

// HasCode reports whether the campaign requires a coupon code.
func (c *Campaign) HasCode() bool {
	return c.Code != ""
}

// Discount computes the discount in kuruş for the given applicable total.
// A non-zero percentage takes precedence over a flat amount. The result
// is not clamped to the total.
func (c *Campaign) Discount(applicableTotal int64) int64 {
	if c.DiscountPercent > 0 {
		return int64(float64(applicableTotal) * c.DiscountPercent / 100)
	}
	return c.DiscountAmount
}

// NormalizeCode canonicalizes a coupon code: surrounding whitespace is
// stripped and the result is upper-cased. Matching is case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

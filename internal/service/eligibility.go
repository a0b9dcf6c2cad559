package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/domain"
)

// ineligibility is a business-rule rejection. It is data, not an error:
// callers surface Reason to the user and never log it as a failure.
type ineligibility struct {
	Reason string
}

func (e *ineligibility) ok() bool { return e == nil }

// eligibleForAutomatic reports whether a campaign may be auto-applied to
// a cart with the given total. Only code-less GENERAL campaigns qualify;
// a campaign carrying a code is never auto-applied.
func eligibleForAutomatic(c *domain.Campaign, now time.Time, cartTotal int64) bool {
	if c.Type != domain.CampaignTypeGeneral {
		return false
	}
	if c.HasCode() {
		return false
	}
	if !c.IsLiveAt(now) {
		return false
	}
	if c.MinPurchaseAmount > 0 && cartTotal < c.MinPurchaseAmount {
		return false
	}
	return true
}

// checkCodeEligibility applies the gating rules of the code path:
// liveness and minimum purchase. The code itself has already been
// matched by lookup. Scoping is checked separately.
func checkCodeEligibility(c *domain.Campaign, now time.Time, cartTotal int64) *ineligibility {
	if !c.IsActive {
		return &ineligibility{Reason: "campaign is not active"}
	}
	if now.Before(c.StartDate) {
		return &ineligibility{Reason: "campaign has not started yet"}
	}
	if now.After(c.EndDate) {
		return &ineligibility{Reason: "campaign has expired"}
	}
	if c.MinPurchaseAmount > 0 && cartTotal < c.MinPurchaseAmount {
		return &ineligibility{
			Reason: fmt.Sprintf("minimum purchase amount for this code is %d", c.MinPurchaseAmount),
		}
	}
	return nil
}

// applicableItems returns the cart lines a campaign's scoping covers.
// GENERAL campaigns cover everything; CATEGORY and PRODUCT campaigns
// cover only the lines matching their scope sets.
func applicableItems(c *domain.Campaign, items []domain.CartItem) []domain.CartItem {
	switch c.Type {
	case domain.CampaignTypeCategory:
		scope := toSet(c.CategoryIDs)
		var matched []domain.CartItem
		for _, it := range items {
			if _, ok := scope[it.CategoryID]; ok {
				matched = append(matched, it)
			}
		}
		return matched

	case domain.CampaignTypeProduct:
		scope := toSet(c.ProductIDs)
		var matched []domain.CartItem
		for _, it := range items {
			if _, ok := scope[it.ProductID]; ok {
				matched = append(matched, it)
			}
		}
		return matched

	default:
		return items
	}
}

// packageDiscount evaluates a PACKAGE campaign against the cart: when
// every bundle line is present in at least its required quantity, the
// discount is the bundle lines' subtotal minus the fixed package price,
// floored at zero. A package without a fixed price falls back to the
// percent/amount path over the bundle subtotal.
func packageDiscount(c *domain.Campaign, items []domain.CartItem) (int64, *ineligibility) {
	if len(c.PackageProducts) == 0 {
		return 0, &ineligibility{Reason: "package campaign has no bundle products"}
	}

	quantities := make(map[string]int, len(items))
	for _, it := range items {
		quantities[it.ProductID] += it.Quantity
	}

	var bundleSubtotal int64
	for _, pp := range c.PackageProducts {
		if quantities[pp.ProductID] < pp.Quantity {
			return 0, &ineligibility{Reason: "cart does not contain the products required by this package"}
		}
		// A required quantity may be spread across several cart lines at
		// different unit prices (variants), so take units line by line
		// until the bundle requirement is covered.
		remaining := pp.Quantity
		for _, it := range items {
			if it.ProductID != pp.ProductID || remaining == 0 {
				continue
			}
			take := it.Quantity
			if take > remaining {
				take = remaining
			}
			bundleSubtotal += it.UnitPrice() * int64(take)
			remaining -= take
		}
	}

	if c.PackagePrice == nil {
		return c.Discount(bundleSubtotal), nil
	}

	discount := bundleSubtotal - *c.PackagePrice
	if discount < 0 {
		discount = 0
	}
	return discount, nil
}

// moreTargeted is the campaign selection comparator: the campaign with
// the higher minimum purchase wins, then the higher discount percent.
func moreTargeted(a, b *domain.Campaign) bool {
	if a.MinPurchaseAmount != b.MinPurchaseAmount {
		return a.MinPurchaseAmount > b.MinPurchaseAmount
	}
	return a.DiscountPercent > b.DiscountPercent
}

// sortByTargeting orders candidates best-first using moreTargeted. The
// sort is stable so co-equal candidates keep their catalog order.
func sortByTargeting(campaigns []*domain.Campaign) {
	sort.SliceStable(campaigns, func(i, j int) bool {
		return moreTargeted(campaigns[i], campaigns[j])
	})
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func joinNames(names []string) string {
	sort.Strings(names)
	return strings.Join(names, ", ")
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCampaignType_Valid(t *testing.T) {
	assert.True(t, CampaignTypeGeneral.Valid())
	assert.True(t, CampaignTypeCategory.Valid())
	assert.True(t, CampaignTypeProduct.Valid())
	assert.True(t, CampaignTypePackage.Valid())
	assert.False(t, CampaignType("FLASH").Valid())
	assert.False(t, CampaignType("").Valid())
}

func TestCampaign_IsLiveAt(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC)

	c := &Campaign{IsActive: true, StartDate: start, EndDate: end}

	// Window endpoints are inclusive.
	assert.True(t, c.IsLiveAt(start))
	assert.True(t, c.IsLiveAt(end))
	assert.True(t, c.IsLiveAt(start.Add(15*24*time.Hour)))

	assert.False(t, c.IsLiveAt(start.Add(-time.Second)))
	assert.False(t, c.IsLiveAt(end.Add(time.Second)))

	c.IsActive = false
	assert.False(t, c.IsLiveAt(start.Add(time.Hour)))
}

func TestCampaign_Discount_PercentPrecedence(t *testing.T) {
	c := &Campaign{DiscountPercent: 10, DiscountAmount: 5000}

	assert.Equal(t, int64(100), c.Discount(1000))
}

func TestCampaign_Discount_FlatAmountNotClamped(t *testing.T) {
	c := &Campaign{DiscountAmount: 5000}

	// The flat amount is returned as-is; flooring is the consumer's job.
	assert.Equal(t, int64(5000), c.Discount(1000))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SUMMER20", NormalizeCode(" summer20 "))
	assert.Equal(t, "SUMMER20", NormalizeCode("Summer20"))
	assert.Equal(t, "SUMMER20", NormalizeCode("SUMMER20"))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestCartItem_UnitPrice(t *testing.T) {
	sale := int64(800)

	assert.Equal(t, int64(1000), CartItem{Price: 1000}.UnitPrice())
	assert.Equal(t, int64(800), CartItem{Price: 1000, SalePrice: &sale}.UnitPrice())
}

func TestCartTotal(t *testing.T) {
	sale := int64(800)
	items := []CartItem{
		{Price: 1000, Quantity: 2},
		{Price: 1000, SalePrice: &sale, Quantity: 3},
	}

	assert.Equal(t, int64(4400), CartTotal(items))
}

func TestProduct_BasePrice(t *testing.T) {
	sale := int64(750)

	p := &Product{Price: 1000}
	assert.Equal(t, int64(1000), p.BasePrice())

	p.SalePrice = &sale
	assert.Equal(t, int64(750), p.BasePrice())
}

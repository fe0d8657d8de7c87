package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/example/medibook/internal/models"
)

func TestUnitPriceIsDeterministic(t *testing.T) {
	book := &models.Book{
		ColorPrice:      120000,
		PhotoPrice:      65000,
		HasColorSale:    true,
		ColorSaleAmount: 15000,
	}

	for _, variant := range []string{models.VariantColor, models.VariantPhoto} {
		first := UnitPrice(book, variant)
		second := UnitPrice(book, variant)
		assert.Equal(t, first, second, "variant %s", variant)
	}
}

func TestColorSaleAppliesOnlyToColorVariant(t *testing.T) {
	book := &models.Book{
		ColorPrice:      100,
		PhotoPrice:      60,
		HasColorSale:    true,
		ColorSaleAmount: 20,
	}

	assert.Equal(t, int64(80), UnitPrice(book, models.VariantColor))
	assert.Equal(t, int64(60), UnitPrice(book, models.VariantPhoto))

	book.HasColorSale = false
	assert.Equal(t, int64(100), UnitPrice(book, models.VariantColor))
	assert.Equal(t, int64(60), UnitPrice(book, models.VariantPhoto))
}

func TestSummarizeClampsTotalAtZero(t *testing.T) {
	summary := testPricing().Summarize(10000, 1000000)

	assert.Equal(t, int64(10000), summary.Subtotal)
	assert.Equal(t, int64(30000), summary.ShippingFee)
	assert.Equal(t, int64(1000000), summary.CouponDiscount)
	assert.Equal(t, int64(0), summary.Total)
}

func TestFreeShippingBoundaryIsExclusive(t *testing.T) {
	pricing := testPricing()

	assert.Equal(t, int64(30000), pricing.Summarize(500000, 0).ShippingFee)
	assert.Equal(t, int64(0), pricing.Summarize(500001, 0).ShippingFee)
}

func TestPriceCartTwoLineScenario(t *testing.T) {
	bookA := &models.Book{Title: "Anatomy Atlas", ColorPrice: 100000, PhotoPrice: 40000}
	bookB := &models.Book{Title: "Pharmacology Notes", ColorPrice: 90000, PhotoPrice: 50000}
	items := []models.CartItem{
		{BookID: uuid.New(), Variant: models.VariantColor, Quantity: 2, Book: bookA},
		{BookID: uuid.New(), Variant: models.VariantPhoto, Quantity: 1, Book: bookB},
	}

	lines, subtotal := PriceCart(items)

	assert.Len(t, lines, 2)
	assert.Equal(t, int64(250000), subtotal)
	assert.Equal(t, int64(200000), lines[0].LineTotal)
	assert.Equal(t, int64(50000), lines[1].LineTotal)

	summary := testPricing().Summarize(subtotal, 0)
	assert.Equal(t, int64(30000), summary.ShippingFee)
	assert.Equal(t, int64(280000), summary.Total)
}

func TestPriceCartSkipsLinesWithoutBook(t *testing.T) {
	items := []models.CartItem{
		{BookID: uuid.New(), Variant: models.VariantColor, Quantity: 1},
	}

	lines, subtotal := PriceCart(items)
	assert.Empty(t, lines)
	assert.Equal(t, int64(0), subtotal)
}

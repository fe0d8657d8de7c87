package services

import (
	"github.com/google/uuid"

	"github.com/example/medibook/internal/models"
)

// PricingConfig carries the checkout pricing knobs. All amounts are integer
// đồng; no float arithmetic anywhere in pricing.
type PricingConfig struct {
	ShippingFlatFee       int64
	FreeShippingThreshold int64
}

// PricedLine is one cart line priced against live book data.
type PricedLine struct {
	BookID    uuid.UUID `json:"book_id"`
	BookTitle string    `json:"book_title"`
	Variant   string    `json:"variant"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	LineTotal int64     `json:"line_total"`
}

// OrderSummary is the order-level money breakdown shown to the customer and
// persisted verbatim on the order header.
type OrderSummary struct {
	Subtotal       int64 `json:"subtotal"`
	ShippingFee    int64 `json:"shipping_fee"`
	CouponDiscount int64 `json:"coupon_discount"`
	Total          int64 `json:"total"`
}

// UnitPrice returns the current per-copy price of a book variant. A sale
// discount applies to the color variant only.
func UnitPrice(book *models.Book, variant string) int64 {
	if variant == models.VariantColor {
		if book.HasColorSale {
			return book.ColorPrice - book.ColorSaleAmount
		}
		return book.ColorPrice
	}
	return book.PhotoPrice
}

// PriceCart prices every cart line and returns the lines with the subtotal.
// Lines whose Book association is not loaded are skipped; callers load carts
// with live book data.
func PriceCart(items []models.CartItem) ([]PricedLine, int64) {
	lines := make([]PricedLine, 0, len(items))
	var subtotal int64

	for _, item := range items {
		if item.Book == nil {
			continue
		}
		unit := UnitPrice(item.Book, item.Variant)
		line := PricedLine{
			BookID:    item.BookID,
			BookTitle: item.Book.Title,
			Variant:   item.Variant,
			Quantity:  item.Quantity,
			UnitPrice: unit,
			LineTotal: unit * int64(item.Quantity),
		}
		subtotal += line.LineTotal
		lines = append(lines, line)
	}

	return lines, subtotal
}

// Summarize computes the order totals. Shipping is free strictly above the
// threshold; the total is clamped at zero so an oversized coupon can never
// produce a negative order.
func (p PricingConfig) Summarize(subtotal, couponDiscount int64) OrderSummary {
	shipping := p.ShippingFlatFee
	if subtotal > p.FreeShippingThreshold {
		shipping = 0
	}

	total := subtotal + shipping - couponDiscount
	if total < 0 {
		total = 0
	}

	return OrderSummary{
		Subtotal:       subtotal,
		ShippingFee:    shipping,
		CouponDiscount: couponDiscount,
		Total:          total,
	}
}

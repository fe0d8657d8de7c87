package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/example/medibook/internal/models"
)

// CouponCheck is the outcome of validating a coupon code against an order
// subtotal. An invalid coupon is a normal result, not an error.
type CouponCheck struct {
	Valid          bool           `json:"valid"`
	Reason         string         `json:"reason,omitempty"`
	Shortfall      int64          `json:"shortfall,omitempty"`
	DiscountAmount int64          `json:"discount_amount"`
	Coupon         *models.Coupon `json:"-"`
}

// CouponService validates and administers discount coupons.
type CouponService struct {
	db *gorm.DB
}

// NewCouponService constructs CouponService.
func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{db: db}
}

// NormalizeCouponCode maps a user-entered code to its stored form. Codes are
// matched case-insensitively.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks a coupon code against the given subtotal. The returned
// error is non-nil only for storage faults.
func (s *CouponService) Validate(ctx context.Context, code string, subtotal int64) (*CouponCheck, error) {
	return validateCoupon(s.db.WithContext(ctx), code, subtotal, time.Now())
}

// validateCoupon runs the check against the given handle so the checkout
// transaction can re-validate with its own tx.
func validateCoupon(db *gorm.DB, code string, subtotal int64, now time.Time) (*CouponCheck, error) {
	normalized := NormalizeCouponCode(code)
	if normalized == "" {
		return &CouponCheck{Valid: false, Reason: "coupon code is required"}, nil
	}

	var coupon models.Coupon
	if err := db.Where("code = ?", normalized).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CouponCheck{Valid: false, Reason: "coupon does not exist"}, nil
		}
		return nil, storageError(err)
	}

	if !coupon.IsActive {
		return &CouponCheck{Valid: false, Reason: "coupon is no longer active"}, nil
	}

	if now.Before(coupon.ValidFrom) {
		return &CouponCheck{Valid: false, Reason: "coupon is not valid yet"}, nil
	}
	if now.After(coupon.ValidTo) {
		return &CouponCheck{Valid: false, Reason: "coupon has expired"}, nil
	}

	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return &CouponCheck{Valid: false, Reason: "coupon usage limit reached"}, nil
	}

	if coupon.MinOrderAmount != nil && subtotal < *coupon.MinOrderAmount {
		shortfall := *coupon.MinOrderAmount - subtotal
		return &CouponCheck{
			Valid:     false,
			Reason:    fmt.Sprintf("order needs %d more to use this coupon", shortfall),
			Shortfall: shortfall,
		}, nil
	}

	return &CouponCheck{
		Valid:          true,
		DiscountAmount: DiscountFor(&coupon, subtotal),
		Coupon:         &coupon,
	}, nil
}

// DiscountFor computes the discount a coupon grants on a subtotal. Percentage
// discounts floor toward zero and honor the max-discount cap; fixed discounts
// never exceed the subtotal itself.
func DiscountFor(coupon *models.Coupon, subtotal int64) int64 {
	switch coupon.DiscountType {
	case models.DiscountTypePercentage:
		discount := subtotal * coupon.DiscountValue / 100
		if coupon.MaxDiscountAmount != nil && discount > *coupon.MaxDiscountAmount {
			discount = *coupon.MaxDiscountAmount
		}
		return discount
	case models.DiscountTypeFixed:
		if coupon.DiscountValue > subtotal {
			return subtotal
		}
		return coupon.DiscountValue
	default:
		return 0
	}
}

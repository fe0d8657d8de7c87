package models

import "time"

// Coupon discount types.
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// Coupon is an admin-issued discount code. Codes match case-insensitively;
// they are stored upper-cased and looked up the same way.
type Coupon struct {
	BaseModel
	Code              string    `gorm:"uniqueIndex" json:"code"`
	Description       string    `json:"description"`
	DiscountType      string    `json:"discount_type"`
	DiscountValue     int64     `json:"discount_value"`
	MaxDiscountAmount *int64    `json:"max_discount_amount"`
	MinOrderAmount    *int64    `json:"min_order_amount"`
	ValidFrom         time.Time `json:"valid_from"`
	ValidTo           time.Time `json:"valid_to"`
	UsageLimit        *int      `json:"usage_limit"`
	UsedCount         int       `json:"used_count"`
	IsActive          bool      `json:"is_active"`
}

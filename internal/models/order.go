package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses. PENDING is the only initial state; the other three are
// terminal.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusFailed    = "FAILED"
	OrderStatusCancelled = "CANCELLED"
)

// Payment method identifiers accepted at checkout.
const (
	PaymentMethodCOD          = "cod"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodMoMo         = "momo"
	PaymentMethodVNPay        = "vnpay"
	PaymentMethodZaloPay      = "zalopay"
)

// Order is the persisted order header. All money fields are integer đồng and
// are persisted as computed at checkout time, never re-derived. The shipping
// block is a snapshot of what the customer entered, not a reference to a
// mutable address row.
type Order struct {
	BaseModel
	OrderNumber      string      `gorm:"uniqueIndex" json:"order_number"`
	UserID           uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	User             *User       `json:"user,omitempty"`
	Status           string      `gorm:"index" json:"status"`
	PlacedAt         time.Time   `json:"placed_at"`
	Subtotal         int64       `json:"subtotal"`
	ShippingFee      int64       `json:"shipping_fee"`
	CouponDiscount   int64       `json:"coupon_discount"`
	TotalAmount      int64       `json:"total_amount"`
	CouponID         *uuid.UUID  `gorm:"type:uuid" json:"coupon_id"`
	CouponCode       string      `json:"coupon_code"`
	PaymentMethod    string      `json:"payment_method"`
	ShippingName     string      `json:"shipping_name"`
	ShippingPhone    string      `json:"shipping_phone"`
	ShippingEmail    string      `json:"shipping_email"`
	ShippingLine     string      `json:"shipping_line"`
	ShippingCity     string      `json:"shipping_city"`
	ShippingDistrict string      `json:"shipping_district"`
	ShippingWard     string      `json:"shipping_ward"`
	Notes            string      `json:"notes"`
	Items            []OrderItem `json:"items,omitempty"`
}

// OrderItem snapshots one purchased line at the moment of purchase. UnitPrice
// and LineTotal are locked here and must never follow later book price edits.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	BookID    uuid.UUID `gorm:"type:uuid" json:"book_id"`
	BookTitle string    `json:"book_title"`
	Variant   string    `json:"variant"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	LineTotal int64     `json:"line_total"`
}

// IsTerminalOrderStatus reports whether s is one of the three terminal states.
func IsTerminalOrderStatus(s string) bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed || s == OrderStatusCancelled
}

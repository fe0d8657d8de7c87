package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/medibook/internal/cache"
	"github.com/example/medibook/internal/models"
)

// ShippingInfo is the customer-entered delivery block, snapshotted onto the
// order header verbatim.
type ShippingInfo struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Line     string `json:"line"`
	City     string `json:"city"`
	District string `json:"district"`
	Ward     string `json:"ward"`
	Notes    string `json:"notes"`
}

// PlaceOrderInput carries everything the customer confirms at checkout.
// Totals are deliberately absent: the server recomputes them from the live
// cart snapshot and never trusts client arithmetic.
type PlaceOrderInput struct {
	PaymentMethod string       `json:"payment_method"`
	CouponCode    string       `json:"coupon_code"`
	Shipping      ShippingInfo `json:"shipping"`
	SaveAddress   bool         `json:"save_address"`
}

// QuoteResult is the server-computed checkout preview.
type QuoteResult struct {
	Lines   []PricedLine `json:"lines"`
	Summary OrderSummary `json:"summary"`
	Coupon  *CouponCheck `json:"coupon,omitempty"`
}

var validPaymentMethods = map[string]bool{
	models.PaymentMethodCOD:          true,
	models.PaymentMethodBankTransfer: true,
	models.PaymentMethodMoMo:         true,
	models.PaymentMethodVNPay:        true,
	models.PaymentMethodZaloPay:      true,
}

// CheckoutService converts a cart into an order in one atomic transaction.
type CheckoutService struct {
	db       *gorm.DB
	pricing  PricingConfig
	cache    *cache.BookCache
	telegram *TelegramService
}

// NewCheckoutService constructs CheckoutService. cache and telegram may be nil.
func NewCheckoutService(db *gorm.DB, pricing PricingConfig, bookCache *cache.BookCache, telegram *TelegramService) *CheckoutService {
	return &CheckoutService{db: db, pricing: pricing, cache: bookCache, telegram: telegram}
}

// Quote prices the current cart and optional coupon without touching any
// state. The arithmetic here is the same arithmetic PlaceOrder persists.
func (s *CheckoutService) Quote(ctx context.Context, userID uuid.UUID, couponCode string) (*QuoteResult, error) {
	var items []models.CartItem
	if err := s.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, storageError(err)
	}

	lines, subtotal := PriceCart(items)
	if len(lines) != len(items) {
		return nil, businessError("a book in the cart is no longer available")
	}

	result := &QuoteResult{Lines: lines}

	var discount int64
	if strings.TrimSpace(couponCode) != "" {
		check, err := validateCoupon(s.db.WithContext(ctx), couponCode, subtotal, time.Now())
		if err != nil {
			return nil, err
		}
		result.Coupon = check
		if check.Valid {
			discount = check.DiscountAmount
		}
	}

	result.Summary = s.pricing.Summarize(subtotal, discount)
	return result, nil
}

// PlaceOrder atomically converts the user's cart into an order: it persists
// the header with server-recomputed totals, snapshots one order line per cart
// line, bumps coupon usage, decrements stock with an availability re-check,
// and clears the cart. Any step failing rolls back every step.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	if !validPaymentMethods[input.PaymentMethod] {
		return nil, validationError("unknown payment method")
	}
	if strings.TrimSpace(input.Shipping.Name) == "" ||
		strings.TrimSpace(input.Shipping.Phone) == "" ||
		strings.TrimSpace(input.Shipping.Line) == "" {
		return nil, validationError("shipping name, phone and address are required")
	}

	var order models.Order
	bookIDs := make([]uuid.UUID, 0, 8)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Preload("Book").
			Where("user_id = ?", userID).
			Order("created_at asc").
			Find(&items).Error; err != nil {
			return storageError(err)
		}

		if len(items) == 0 {
			return businessError("cart is empty")
		}

		lines, subtotal := PriceCart(items)
		if len(lines) != len(items) {
			return businessError("a book in the cart is no longer available")
		}

		// Coupon is re-validated here against the final, server-side
		// subtotal, never against a client-reported one.
		var discount int64
		var coupon *models.Coupon
		if strings.TrimSpace(input.CouponCode) != "" {
			check, err := validateCoupon(tx, input.CouponCode, subtotal, time.Now())
			if err != nil {
				return err
			}
			if !check.Valid {
				return businessError(check.Reason)
			}
			discount = check.DiscountAmount
			coupon = check.Coupon
		}

		summary := s.pricing.Summarize(subtotal, discount)

		order = models.Order{
			OrderNumber:      GenerateOrderNumber(),
			UserID:           userID,
			Status:           models.OrderStatusPending,
			PlacedAt:         time.Now(),
			Subtotal:         summary.Subtotal,
			ShippingFee:      summary.ShippingFee,
			CouponDiscount:   summary.CouponDiscount,
			TotalAmount:      summary.Total,
			PaymentMethod:    input.PaymentMethod,
			ShippingName:     input.Shipping.Name,
			ShippingPhone:    input.Shipping.Phone,
			ShippingEmail:    input.Shipping.Email,
			ShippingLine:     input.Shipping.Line,
			ShippingCity:     input.Shipping.City,
			ShippingDistrict: input.Shipping.District,
			ShippingWard:     input.Shipping.Ward,
			Notes:            input.Shipping.Notes,
		}
		if coupon != nil {
			order.CouponID = &coupon.ID
			order.CouponCode = coupon.Code
		}

		// The order_number unique index backs up the generator: a collision
		// fails the insert instead of silently sharing a number.
		if err := tx.Create(&order).Error; err != nil {
			return storageError(err)
		}

		for _, line := range lines {
			item := models.OrderItem{
				OrderID:   order.ID,
				BookID:    line.BookID,
				BookTitle: line.BookTitle,
				Variant:   line.Variant,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				LineTotal: line.LineTotal,
			}
			if err := tx.Create(&item).Error; err != nil {
				return storageError(err)
			}
			order.Items = append(order.Items, item)
		}

		if coupon != nil {
			res := tx.Model(&models.Coupon{}).
				Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", coupon.ID).
				UpdateColumn("used_count", gorm.Expr("used_count + 1"))
			if res.Error != nil {
				return storageError(res.Error)
			}
			if res.RowsAffected == 0 {
				return businessError("coupon usage limit reached")
			}
		}

		// Conditional decrement: stock may have moved since the snapshot was
		// read, so the availability check happens in the UPDATE itself. Two
		// concurrent checkouts for the last copy cannot both pass.
		for _, line := range lines {
			res := tx.Model(&models.Book{}).
				Where("id = ? AND available_copies >= ?", line.BookID, line.Quantity).
				UpdateColumn("available_copies", gorm.Expr("available_copies - ?", line.Quantity))
			if res.Error != nil {
				return storageError(res.Error)
			}
			if res.RowsAffected == 0 {
				return stockConflictError(fmt.Sprintf("not enough copies of %q in stock", line.BookTitle))
			}
			bookIDs = append(bookIDs, line.BookID)
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return storageError(err)
		}

		if input.SaveAddress {
			if err := s.saveShippingAddress(tx, userID, input.Shipping); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if se, ok := AsServiceError(err); ok && se.Kind == ErrKindStorage {
			log.Printf("[Checkout] order creation failed for user %s: %v", userID, se.Err)
		}
		return nil, err
	}

	s.cache.Invalidate(bookIDs...)

	if s.telegram != nil {
		go s.telegram.NotifyNewOrder(orderNotificationFrom(&order))
	}

	return &order, nil
}

// CancelOrder lets a customer cancel their own order while it is still
// PENDING, returning the reserved copies to stock in the same transaction.
func (s *CheckoutService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	bookIDs := make([]uuid.UUID, 0, 8)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").
			First(&order, "id = ? AND user_id = ?", orderID, userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return businessError("order not found")
			}
			return storageError(err)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
			Update("status", models.OrderStatusCancelled)
		if res.Error != nil {
			return storageError(res.Error)
		}
		if res.RowsAffected == 0 {
			return businessError("only pending orders can be cancelled")
		}
		order.Status = models.OrderStatusCancelled

		for _, item := range order.Items {
			if err := tx.Model(&models.Book{}).
				Where("id = ?", item.BookID).
				UpdateColumn("available_copies", gorm.Expr("available_copies + ?", item.Quantity)).Error; err != nil {
				return storageError(err)
			}
			bookIDs = append(bookIDs, item.BookID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(bookIDs...)
	return &order, nil
}

// SetOrderStatus is the back-office transition: it moves a PENDING order to
// any terminal state, returning reserved copies to stock when the target is
// CANCELLED. Terminal orders are never modified.
func (s *CheckoutService) SetOrderStatus(ctx context.Context, orderID uuid.UUID, target string) (*models.Order, error) {
	if !models.IsTerminalOrderStatus(target) {
		return nil, validationError("status must be COMPLETED, FAILED or CANCELLED")
	}

	var order models.Order
	bookIDs := make([]uuid.UUID, 0, 8)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return businessError("order not found")
			}
			return storageError(err)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
			Update("status", target)
		if res.Error != nil {
			return storageError(res.Error)
		}
		if res.RowsAffected == 0 {
			return businessError("only pending orders can change status")
		}
		order.Status = target

		if target == models.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := tx.Model(&models.Book{}).
					Where("id = ?", item.BookID).
					UpdateColumn("available_copies", gorm.Expr("available_copies + ?", item.Quantity)).Error; err != nil {
					return storageError(err)
				}
				bookIDs = append(bookIDs, item.BookID)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(bookIDs...)
	return &order, nil
}

func (s *CheckoutService) saveShippingAddress(tx *gorm.DB, userID uuid.UUID, info ShippingInfo) error {
	var count int64
	if err := tx.Model(&models.ShippingAddress{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return storageError(err)
	}

	addr := models.ShippingAddress{
		UserID:    userID,
		FullName:  info.Name,
		Phone:     info.Phone,
		Email:     info.Email,
		Line:      info.Line,
		City:      info.City,
		District:  info.District,
		Ward:      info.Ward,
		IsDefault: count == 0,
	}
	if err := tx.Create(&addr).Error; err != nil {
		return storageError(err)
	}
	return nil
}

// GenerateOrderNumber builds a human-shareable order number: a date prefix
// plus a random suffix. Uniqueness is additionally enforced by the storage
// level unique index on order_number.
func GenerateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("MB-%s-%s", time.Now().Format("20060102"), suffix)
}

func orderNotificationFrom(order *models.Order) OrderNotification {
	items := make([]OrderItemNotification, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, OrderItemNotification{
			Title:    it.BookTitle,
			Variant:  it.Variant,
			Quantity: it.Quantity,
			Price:    it.UnitPrice,
		})
	}
	return OrderNotification{
		OrderNumber:   order.OrderNumber,
		Items:         items,
		TotalAmount:   order.TotalAmount,
		CustomerName:  order.ShippingName,
		CustomerPhone: order.ShippingPhone,
		PaymentMethod: order.PaymentMethod,
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/medibook/internal/middleware"
	"github.com/example/medibook/internal/models"
	"github.com/example/medibook/internal/services"
	"github.com/example/medibook/internal/utils"
)

// OrderHandler manages checkout and order endpoints.
type OrderHandler struct {
	db       *gorm.DB
	checkout *services.CheckoutService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, checkout *services.CheckoutService) *OrderHandler {
	return &OrderHandler{db: db, checkout: checkout}
}

type quoteRequest struct {
	CouponCode string `json:"coupon_code"`
}

// Quote prices the current cart plus an optional coupon. The response uses
// the same arithmetic order creation persists, so what the customer sees is
// what gets charged.
func (h *OrderHandler) Quote(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req quoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	quote, err := h.checkout.Quote(c.Context(), userID, req.CouponCode)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": quote})
}

// CreateOrder converts the user's cart into an order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var input services.PlaceOrderInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.checkout.PlaceOrder(c.Context(), userID, input)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":              order.ID,
			"order_number":    order.OrderNumber,
			"status":          order.Status,
			"placed_at":       order.PlacedAt,
			"subtotal":        order.Subtotal,
			"shipping_fee":    order.ShippingFee,
			"coupon_discount": order.CouponDiscount,
			"total":           order.TotalAmount,
		},
	})
}

// ListOrders returns orders for the authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Where("user_id = ?", userID).Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns a single order by ID or order number.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	ref := c.Params("id")
	query := h.db.Preload("Items").Where("user_id = ?", userID)
	if id, err := uuid.Parse(ref); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("order_number = ?", ref)
	}

	var order models.Order
	if err := query.First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// CancelOrder cancels the user's own PENDING order and restocks its lines.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := h.checkout.CancelOrder(c.Context(), userID, id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/medibook/internal/models"
	"github.com/example/medibook/internal/services"
	"github.com/example/medibook/internal/utils"
)

// CouponHandler exposes coupon validation to the storefront and CRUD to the
// back office.
type CouponHandler struct {
	db      *gorm.DB
	coupons *services.CouponService
}

// NewCouponHandler constructs CouponHandler.
func NewCouponHandler(db *gorm.DB, coupons *services.CouponService) *CouponHandler {
	return &CouponHandler{db: db, coupons: coupons}
}

type validateCouponRequest struct {
	Code     string `json:"code"`
	Subtotal int64  `json:"subtotal"`
}

// Validate checks a coupon code against a subtotal. An invalid coupon is a
// 200 with valid=false and a reason, not an error: this is user-facing
// validation, not a fault.
func (h *CouponHandler) Validate(c *fiber.Ctx) error {
	var req validateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Subtotal < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "subtotal must not be negative")
	}

	check, err := h.coupons.Validate(c.Context(), req.Code, req.Subtotal)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": check})
}

// ListCoupons returns paginated coupons. Admin only.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Coupon{})

	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var coupons []models.Coupon
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&coupons).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    coupons,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// CreateCoupon persists a new coupon with a normalized code.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var payload models.Coupon
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.Code = services.NormalizeCouponCode(payload.Code)
	if err := validateCouponPayload(&payload); err != nil {
		return err
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateCoupon updates an existing coupon.
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var coupon models.Coupon
	if err := h.db.First(&coupon, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "coupon not found")
		}
		return err
	}

	var payload models.Coupon
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.Code = services.NormalizeCouponCode(payload.Code)
	if err := validateCouponPayload(&payload); err != nil {
		return err
	}

	// Column map rather than a struct: struct updates skip zero values, which
	// would make deactivating a coupon impossible. used_count stays untouched.
	updates := map[string]interface{}{
		"code":                payload.Code,
		"description":         payload.Description,
		"discount_type":       payload.DiscountType,
		"discount_value":      payload.DiscountValue,
		"max_discount_amount": payload.MaxDiscountAmount,
		"min_order_amount":    payload.MinOrderAmount,
		"valid_from":          payload.ValidFrom,
		"valid_to":            payload.ValidTo,
		"usage_limit":         payload.UsageLimit,
		"is_active":           payload.IsActive,
	}
	if err := h.db.Model(&coupon).Updates(updates).Error; err != nil {
		return err
	}

	if err := h.db.First(&coupon, "id = ?", coupon.ID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": coupon})
}

// DeleteCoupon removes a coupon by ID.
func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Coupon{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func validateCouponPayload(coupon *models.Coupon) error {
	if coupon.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}
	if coupon.DiscountType != models.DiscountTypePercentage && coupon.DiscountType != models.DiscountTypeFixed {
		return fiber.NewError(fiber.StatusBadRequest, "discount_type must be percentage or fixed")
	}
	if coupon.DiscountValue <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "discount_value must be positive")
	}
	if coupon.DiscountType == models.DiscountTypePercentage && coupon.DiscountValue > 100 {
		return fiber.NewError(fiber.StatusBadRequest, "percentage discount cannot exceed 100")
	}
	if !coupon.ValidTo.After(coupon.ValidFrom) {
		return fiber.NewError(fiber.StatusBadRequest, "valid_to must be after valid_from")
	}
	return nil
}

package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/medibook/internal/config"
	"github.com/example/medibook/internal/middleware"
	"github.com/example/medibook/internal/models"
	"github.com/example/medibook/internal/services"
	"github.com/example/medibook/internal/utils"
)

// PaymentHandler terminates payment-gateway callbacks and serves payment
// bootstrap endpoints.
type PaymentHandler struct {
	db         *gorm.DB
	cfg        *config.Config
	reconciler *services.PaymentReconciler
	momo       *services.MoMoAdapter
	vnpay      *services.VNPayAdapter
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(db *gorm.DB, cfg *config.Config, reconciler *services.PaymentReconciler, momo *services.MoMoAdapter, vnpay *services.VNPayAdapter) *PaymentHandler {
	return &PaymentHandler{db: db, cfg: cfg, reconciler: reconciler, momo: momo, vnpay: vnpay}
}

// ListMethods returns the payment methods the storefront offers. Wallet
// providers only appear when their credentials are configured.
func (h *PaymentHandler) ListMethods(c *fiber.Ctx) error {
	methods := []string{models.PaymentMethodCOD, models.PaymentMethodBankTransfer}
	if h.cfg.MoMoPartnerCode != "" {
		methods = append(methods, models.PaymentMethodMoMo)
	}
	if h.cfg.VNPayTmnCode != "" {
		methods = append(methods, models.PaymentMethodVNPay)
	}
	if h.cfg.ZaloPayAppID != "" {
		methods = append(methods, models.PaymentMethodZaloPay)
	}

	return c.JSON(fiber.Map{"success": true, "data": methods})
}

type initiatePaymentRequest struct {
	OrderID   string `json:"order_id"`
	ReturnURL string `json:"return_url"`
}

// InitiatePayment returns a wallet pay URL for a PENDING order. COD and bank
// transfer orders have nothing to initiate.
func (h *PaymentHandler) InitiatePayment(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req initiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.ReturnURL) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "return_url is required")
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order_id")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ? AND user_id = ?", orderID, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}
	if order.Status != models.OrderStatusPending {
		return fiber.NewError(fiber.StatusConflict, "order is not awaiting payment")
	}

	switch order.PaymentMethod {
	case models.PaymentMethodMoMo:
		ipnURL := c.BaseURL() + "/api/payments/momo/ipn"
		payURL, err := h.momo.CreatePayment(c.Context(), &order, req.ReturnURL, ipnURL)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "payment provider unavailable")
		}
		return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"pay_url": payURL}})
	case models.PaymentMethodVNPay:
		payURL := h.vnpay.BuildPaymentURL(&order, req.ReturnURL, c.IP())
		return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"pay_url": payURL}})
	default:
		return fiber.NewError(fiber.StatusBadRequest, "order payment method needs no payment url")
	}
}

// MoMoIPN receives MoMo server notifications. MoMo expects 204 on accepted
// notifications and will retry otherwise.
func (h *PaymentHandler) MoMoIPN(c *fiber.Ctx) error {
	if _, err := h.reconciler.Reconcile(c.Context(), models.PaymentMethodMoMo, c.Body()); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// VNPayIPN receives VNPay server notifications as a signed query string and
// answers in VNPay's response-code vocabulary.
func (h *PaymentHandler) VNPayIPN(c *fiber.Ctx) error {
	raw := c.Context().QueryArgs().String()

	if _, err := h.reconciler.Reconcile(c.Context(), models.PaymentMethodVNPay, []byte(raw)); err != nil {
		if se, ok := services.AsServiceError(err); ok && se.Kind == services.ErrKindReconciliation {
			return c.JSON(fiber.Map{"RspCode": "97", "Message": se.Reason})
		}
		return c.JSON(fiber.Map{"RspCode": "99", "Message": "Unknown error"})
	}

	return c.JSON(fiber.Map{"RspCode": "00", "Message": "Confirm Success"})
}

// ZaloPayCallback receives ZaloPay server callbacks and answers in ZaloPay's
// return-code vocabulary.
func (h *PaymentHandler) ZaloPayCallback(c *fiber.Ctx) error {
	if _, err := h.reconciler.Reconcile(c.Context(), models.PaymentMethodZaloPay, c.Body()); err != nil {
		if se, ok := services.AsServiceError(err); ok && se.Kind == services.ErrKindReconciliation {
			return c.JSON(fiber.Map{"return_code": -1, "return_message": se.Reason})
		}
		return c.JSON(fiber.Map{"return_code": 0, "return_message": "retry"})
	}

	return c.JSON(fiber.Map{"return_code": 1, "return_message": "success"})
}

// ListTransactions returns the payment callback audit log, optionally
// filtered. Admin only.
func (h *PaymentHandler) ListTransactions(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.PaymentTransaction{})

	if provider := strings.TrimSpace(c.Query("provider")); provider != "" {
		query = query.Where("provider = ?", provider)
	}
	if outcome := strings.TrimSpace(c.Query("outcome")); outcome != "" {
		query = query.Where("outcome = ?", outcome)
	}
	if orderRef := strings.TrimSpace(c.Query("order_ref")); orderRef != "" {
		query = query.Where("order_ref = ?", orderRef)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var txns []models.PaymentTransaction
	if err := query.
		Order("created_at desc").
		Limit(pg.Limit).
		Offset(pg.Offset).
		Find(&txns).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    txns,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

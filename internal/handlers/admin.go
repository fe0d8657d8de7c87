package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/medibook/internal/models"
	"github.com/example/medibook/internal/services"
	"github.com/example/medibook/internal/utils"
)

// AdminHandler manages back-office endpoints.
type AdminHandler struct {
	db       *gorm.DB
	checkout *services.CheckoutService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, checkout *services.CheckoutService) *AdminHandler {
	return &AdminHandler{db: db, checkout: checkout}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalBooks int64
	if err := h.db.Model(&models.Book{}).Count(&totalBooks).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	// Revenue counts completed orders only; pending money is not revenue yet.
	var totalRevenue int64
	if err := h.db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusCompleted).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	var outOfStock int64
	if err := h.db.Model(&models.Book{}).
		Where("available_copies = 0").
		Count(&outOfStock).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_books":      totalBooks,
			"total_orders":     totalOrders,
			"total_revenue":    totalRevenue,
			"out_of_stock":     outOfStock,
			"orders_by_status": ordersByStatus,
		},
	})
}

// ListAllOrders returns all orders with pagination, filtering, and user info.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if search := c.Query("search"); search != "" {
		query = query.Where(
			"order_number ILIKE ? OR shipping_name ILIKE ? OR shipping_phone ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("User").
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

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves a PENDING order to a terminal state. This is how a
// confirmed bank transfer becomes COMPLETED. Terminal orders never change
// again.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.checkout.SetOrderStatus(c.Context(), id, req.Status)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// RecentOrders returns the most recent 5 orders for the dashboard.
func (h *AdminHandler) RecentOrders(c *fiber.Ctx) error {
	var orders []models.Order
	if err := h.db.Preload("Items").Preload("User").
		Order("placed_at desc").
		Limit(5).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
	})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/medibook/internal/models"
	"github.com/example/medibook/internal/utils"
)

// CatalogHandler manages book categories.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// ListCategories returns paginated categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	var categories []models.Category
	var total int64

	if err := h.db.Model(&models.Category{}).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Limit(pg.Limit).Offset(pg.Offset).Order("name asc").
		Find(&categories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetCategory returns a single category by ID.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// CreateCategory persists a new category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var payload models.Category
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateCategory updates an existing category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	var payload models.Category
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = category.ID
	if err := h.db.Model(&category).Updates(payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// DeleteCategory removes a category by ID.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Category{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/medibook/internal/cache"
	"github.com/example/medibook/internal/models"
	"github.com/example/medibook/internal/utils"
)

// BookHandler manages the book catalog.
type BookHandler struct {
	db    *gorm.DB
	cache *cache.BookCache
}

// NewBookHandler constructs BookHandler.
func NewBookHandler(db *gorm.DB, bookCache *cache.BookCache) *BookHandler {
	return &BookHandler{db: db, cache: bookCache}
}

// ListBooks returns paginated books with optional filters.
func (h *BookHandler) ListBooks(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Book{})

	if search := c.Query("search"); search != "" {
		query = query.Where("title ILIKE ? OR author ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		parsed, err := uuid.Parse(categoryID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category_id")
		}
		query = query.Where("category_id = ?", parsed)
	}
	if c.Query("on_sale") == "true" {
		query = query.Where("has_color_sale = ?", true)
	}
	if c.Query("completed") == "true" {
		query = query.Where("is_completed = ?", true)
	}
	if c.Query("preorder") == "true" {
		query = query.Where("is_preorder = ?", true)
	}
	if c.Query("in_stock") == "true" {
		query = query.Where("available_copies > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var books []models.Book
	if err := query.Preload("Category").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&books).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    books,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetBook returns one book by ID or slug. Detail reads go through the cache;
// cart and checkout never do.
func (h *BookHandler) GetBook(c *fiber.Ctx) error {
	ref := c.Params("id")

	if id, err := uuid.Parse(ref); err == nil {
		if book, ok := h.cache.GetBook(c.Context(), id); ok {
			return c.JSON(fiber.Map{"success": true, "data": book})
		}
	}

	var book models.Book
	query := h.db.Preload("Category")
	if id, err := uuid.Parse(ref); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", ref)
	}

	if err := query.First(&book).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "book not found")
		}
		return err
	}

	h.cache.SetBook(c.Context(), &book)
	return c.JSON(fiber.Map{"success": true, "data": book})
}

// CreateBook persists a new book.
func (h *BookHandler) CreateBook(c *fiber.Ctx) error {
	var payload models.Book
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validateBookPayload(&payload); err != nil {
		return err
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateBook updates an existing book and busts its cache entry.
func (h *BookHandler) UpdateBook(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var book models.Book
	if err := h.db.First(&book, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "book not found")
		}
		return err
	}

	var payload models.Book
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validateBookPayload(&payload); err != nil {
		return err
	}

	// Column map rather than a struct: struct updates skip zero values, which
	// would make ending a sale or zeroing stock impossible.
	updates := map[string]interface{}{
		"slug":              payload.Slug,
		"title":             payload.Title,
		"author":            payload.Author,
		"description":       payload.Description,
		"cover_image":       payload.CoverImage,
		"color_price":       payload.ColorPrice,
		"photo_price":       payload.PhotoPrice,
		"has_color_sale":    payload.HasColorSale,
		"color_sale_amount": payload.ColorSaleAmount,
		"available_copies":  payload.AvailableCopies,
		"is_completed":      payload.IsCompleted,
		"is_preorder":       payload.IsPreorder,
		"page_count":        payload.PageCount,
		"published_year":    payload.PublishedYear,
		"category_id":       payload.CategoryID,
	}
	if err := h.db.Model(&book).Updates(updates).Error; err != nil {
		return err
	}

	if err := h.db.First(&book, "id = ?", book.ID).Error; err != nil {
		return err
	}

	h.cache.Invalidate(book.ID)
	return c.JSON(fiber.Map{"success": true, "data": book})
}

// DeleteBook removes a book by ID.
func (h *BookHandler) DeleteBook(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Book{}, "id = ?", id).Error; err != nil {
		return err
	}

	h.cache.Invalidate(id)
	return c.SendStatus(fiber.StatusNoContent)
}

func validateBookPayload(book *models.Book) error {
	if strings.TrimSpace(book.Title) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title is required")
	}
	if book.ColorPrice < 0 || book.PhotoPrice < 0 || book.ColorSaleAmount < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "prices must not be negative")
	}
	if book.HasColorSale && book.ColorSaleAmount > book.ColorPrice {
		return fiber.NewError(fiber.StatusBadRequest, "sale amount exceeds color price")
	}
	if book.AvailableCopies < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "available copies must not be negative")
	}
	return nil
}

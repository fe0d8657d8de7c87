package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/medibook/internal/middleware"
	"github.com/example/medibook/internal/services"
)

// CartHandler manages the authenticated user's cart.
type CartHandler struct {
	cart *services.CartService
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(cart *services.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

type addCartItemRequest struct {
	BookID   string `json:"book_id"`
	Variant  string `json:"variant"`
	Quantity int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the user's cart lines joined with live book data, priced
// exactly as checkout would price them.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	items, err := h.cart.Load(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	lines, subtotal := services.PriceCart(items)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"items":    items,
			"lines":    lines,
			"subtotal": subtotal,
		},
	})
}

// AddItem adds a book variant to the cart, merging with an existing line.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid book_id")
	}

	item, err := h.cart.Add(c.Context(), userID, bookID, req.Variant, req.Quantity)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// UpdateItem changes the quantity of one cart line.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.cart.UpdateQuantity(c.Context(), userID, itemID, req.Quantity); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// RemoveItem deletes one cart line.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.cart.Remove(c.Context(), userID, itemID); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ClearCart empties the user's cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.cart.Clear(c.Context(), userID); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

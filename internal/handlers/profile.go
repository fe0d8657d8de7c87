package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/medibook/internal/middleware"
	"github.com/example/medibook/internal/models"
)

// ProfileHandler manages the user profile and saved shipping addresses.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// GetProfile returns the caller's profile, creating the row lazily the first
// time an identity-provider id is seen.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.Preload("Addresses").
		FirstOrCreate(&user, models.User{BaseModel: models.BaseModel{ID: userID}}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// UpdateProfile updates display fields on the caller's profile.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.FirstOrCreate(&user, models.User{BaseModel: models.BaseModel{ID: userID}}).Error; err != nil {
		return err
	}

	updates := map[string]any{
		"display_name": req.DisplayName,
		"email":        req.Email,
		"phone":        req.Phone,
	}
	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}

// ListAddresses returns the caller's saved shipping addresses.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var addresses []models.ShippingAddress
	if err := h.db.Where("user_id = ?", userID).
		Order("is_default desc, created_at desc").
		Find(&addresses).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": addresses})
}

// CreateAddress saves a new shipping address. Marking it default clears the
// previous default in the same transaction.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var payload models.ShippingAddress
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	payload.UserID = userID

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if payload.IsDefault {
			if err := tx.Model(&models.ShippingAddress{}).
				Where("user_id = ? AND is_default = ?", userID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&payload).Error
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateAddress updates one of the caller's addresses.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var address models.ShippingAddress
	if err := h.db.First(&address, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "address not found")
		}
		return err
	}

	var payload models.ShippingAddress
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	payload.ID = address.ID
	payload.UserID = userID

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if payload.IsDefault && !address.IsDefault {
			if err := tx.Model(&models.ShippingAddress{}).
				Where("user_id = ? AND is_default = ?", userID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Model(&address).Updates(payload).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": address})
}

// DeleteAddress removes one of the caller's addresses.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.ShippingAddress{}, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/medibook/internal/models"
)

// CartService owns the server-authoritative cart. Reads always join live book
// rows; client-held totals are never trusted.
type CartService struct {
	db *gorm.DB
}

// NewCartService constructs CartService.
func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// Load returns the user's cart lines with live book price and stock data.
// An empty cart is a normal result, not an error.
func (s *CartService) Load(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := s.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, storageError(err)
	}
	return items, nil
}

// Add puts a book variant into the cart. Adding a (book, variant) pair that
// is already present merges quantities instead of creating a second line.
func (s *CartService) Add(ctx context.Context, userID, bookID uuid.UUID, variant string, quantity int) (*models.CartItem, error) {
	if !models.IsValidVariant(variant) {
		return nil, validationError("unknown variant")
	}
	if quantity < 1 {
		return nil, validationError("quantity must be at least 1")
	}

	var item models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.First(&book, "id = ?", bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return businessError("book not found")
			}
			return storageError(err)
		}

		err := tx.Where("user_id = ? AND book_id = ? AND variant = ?", userID, bookID, variant).
			First(&item).Error
		if err == nil {
			item.Quantity += quantity
			if err := tx.Model(&item).Update("quantity", item.Quantity).Error; err != nil {
				return storageError(err)
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return storageError(err)
		}

		item = models.CartItem{
			UserID:   userID,
			BookID:   bookID,
			Variant:  variant,
			Quantity: quantity,
		}
		if err := tx.Create(&item).Error; err != nil {
			return storageError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	item.Book = nil
	return &item, nil
}

// UpdateQuantity sets the quantity of an existing cart line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return validationError("quantity must be at least 1")
	}

	res := s.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Update("quantity", quantity)
	if res.Error != nil {
		return storageError(res.Error)
	}
	if res.RowsAffected == 0 {
		return businessError("cart line not found")
	}
	return nil
}

// Remove deletes one cart line.
func (s *CartService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return storageError(res.Error)
	}
	if res.RowsAffected == 0 {
		return businessError("cart line not found")
	}
	return nil
}

// Clear empties the user's cart.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error; err != nil {
		return storageError(err)
	}
	return nil
}

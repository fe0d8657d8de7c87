package models

import "github.com/google/uuid"

// CartItem is one line of a user's cart. A user holds at most one line per
// (book, variant) pair; repeated adds merge into the existing line.
type CartItem struct {
	BaseModel
	UserID   uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_cart_user_book_variant" json:"user_id"`
	BookID   uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_cart_user_book_variant" json:"book_id"`
	Variant  string    `gorm:"uniqueIndex:idx_cart_user_book_variant" json:"variant"`
	Quantity int       `json:"quantity"`
	Book     *Book     `json:"book,omitempty"`
}

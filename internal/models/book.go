package models

import (
	"github.com/google/uuid"
)

// Book variant identifiers. Every title sells in two print variants
// priced independently.
const (
	VariantColor = "color"
	VariantPhoto = "photo"
)

// Book represents a sellable medical title.
type Book struct {
	BaseModel
	Slug            string     `gorm:"uniqueIndex" json:"slug"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Description     string     `json:"description"`
	CoverImage      string     `json:"cover_image"`
	ColorPrice      int64      `json:"color_price"`
	PhotoPrice      int64      `json:"photo_price"`
	HasColorSale    bool       `json:"has_color_sale"`
	ColorSaleAmount int64      `json:"color_sale_amount"`
	AvailableCopies int        `json:"available_copies"`
	IsCompleted     bool       `json:"is_completed"`
	IsPreorder      bool       `json:"is_preorder"`
	PageCount       int        `json:"page_count"`
	PublishedYear   int        `json:"published_year"`
	CategoryID      *uuid.UUID `gorm:"type:uuid" json:"category_id"`
	Category        *Category  `json:"category,omitempty"`
}

// IsValidVariant reports whether v names a sellable variant.
func IsValidVariant(v string) bool {
	return v == VariantColor || v == VariantPhoto
}

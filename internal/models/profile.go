package models

import "github.com/google/uuid"

// ShippingAddress is a saved delivery address. At most one row per user is
// marked default.
type ShippingAddress struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Line      string    `json:"line"`
	City      string    `json:"city"`
	District  string    `json:"district"`
	Ward      string    `json:"ward"`
	IsDefault bool      `json:"is_default"`
}

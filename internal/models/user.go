package models

// User mirrors a customer known to the external identity provider. Rows are
// created lazily the first time an authenticated identifier is seen; the
// backend performs no authentication of its own.
type User struct {
	BaseModel
	DisplayName string            `json:"display_name"`
	Email       string            `gorm:"index" json:"email"`
	Phone       string            `json:"phone"`
	IsAdmin     bool              `json:"is_admin"`
	Addresses   []ShippingAddress `json:"addresses,omitempty"`
	Orders      []Order           `json:"orders,omitempty"`
}

package models

// Category groups books by medical specialty.
type Category struct {
	BaseModel
	Name        string `json:"name"`
	Slug        string `gorm:"uniqueIndex" json:"slug"`
	Description string `json:"description"`
	Books       []Book `json:"books,omitempty"`
}

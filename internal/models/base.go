package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides the shared identity and timestamp columns. Order rows
// reference books and coupons by these IDs long after an admin may have
// removed them from the catalog, which is why order lines snapshot the data
// they need instead of relying on the reference staying resolvable.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a fresh UUID unless the caller set one, so fixtures
// can pin IDs.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

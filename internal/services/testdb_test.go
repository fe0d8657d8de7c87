package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/medibook/internal/database"
	"github.com/example/medibook/internal/models"
)

// newTestDB opens an isolated in-memory sqlite database with the full schema.
// A single connection keeps every query on the same memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func testPricing() PricingConfig {
	return PricingConfig{
		ShippingFlatFee:       30000,
		FreeShippingThreshold: 500000,
	}
}

func createBook(t *testing.T, db *gorm.DB, title string, colorPrice, photoPrice int64, copies int) *models.Book {
	t.Helper()

	book := &models.Book{
		Slug:            uuid.NewString(),
		Title:           title,
		Author:          "Test Author",
		ColorPrice:      colorPrice,
		PhotoPrice:      photoPrice,
		AvailableCopies: copies,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

func addCartLine(t *testing.T, db *gorm.DB, userID uuid.UUID, book *models.Book, variant string, qty int) {
	t.Helper()

	require.NoError(t, db.Create(&models.CartItem{
		UserID:   userID,
		BookID:   book.ID,
		Variant:  variant,
		Quantity: qty,
	}).Error)
}

func createCoupon(t *testing.T, db *gorm.DB, coupon *models.Coupon) *models.Coupon {
	t.Helper()

	if coupon.ValidFrom.IsZero() {
		coupon.ValidFrom = time.Now().Add(-time.Hour)
	}
	if coupon.ValidTo.IsZero() {
		coupon.ValidTo = time.Now().Add(time.Hour)
	}
	require.NoError(t, db.Create(coupon).Error)
	return coupon
}

func testShipping() ShippingInfo {
	return ShippingInfo{
		Name:     "Nguyen Van A",
		Phone:    "0901234567",
		Email:    "a@example.com",
		Line:     "12 Nguyen Trai",
		City:     "Ho Chi Minh",
		District: "District 5",
		Ward:     "Ward 7",
	}
}

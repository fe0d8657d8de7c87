package handlers

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/medibook/internal/models"
	"github.com/example/medibook/internal/services"
)

func TestUpdateCouponCanDeactivate(t *testing.T) {
	db := newTestDB(t)
	coupon := &models.Coupon{
		Code:          "SAVE10K",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 10000,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidTo:       time.Now().Add(time.Hour),
		UsedCount:     3,
		IsActive:      true,
	}
	require.NoError(t, db.Create(coupon).Error)

	app := fiber.New()
	h := NewCouponHandler(db, services.NewCouponService(db))
	app.Put("/api/admin/coupons/:id", h.UpdateCoupon)

	payload := fmt.Sprintf(
		`{"code":"SAVE10K","discount_type":"fixed","discount_value":10000,"valid_from":%q,"valid_to":%q,"is_active":false}`,
		coupon.ValidFrom.Format(time.RFC3339), coupon.ValidTo.Format(time.RFC3339),
	)
	req := httptest.NewRequest(fiber.MethodPut, "/api/admin/coupons/"+coupon.ID.String(), strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var reloaded models.Coupon
	require.NoError(t, db.First(&reloaded, "id = ?", coupon.ID).Error)
	assert.False(t, reloaded.IsActive, "admin deactivated the coupon; it must be inactive")
	assert.Equal(t, 3, reloaded.UsedCount, "updates must not reset usage counting")

	// The validator must reject the coupon from here on.
	check, err := services.NewCouponService(db).Validate(context.Background(), "SAVE10K", 100000)
	require.NoError(t, err)
	assert.False(t, check.Valid)
}

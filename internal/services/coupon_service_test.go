package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/medibook/internal/models"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestValidateUnknownCode(t *testing.T) {
	svc := NewCouponService(newTestDB(t))

	check, err := svc.Validate(context.Background(), "NOPE", 100000)
	require.NoError(t, err)
	assert.False(t, check.Valid)
	assert.Equal(t, "coupon does not exist", check.Reason)
}

func TestValidateIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	createCoupon(t, db, &models.Coupon{
		Code:          "SUMMER10",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 10000,
		IsActive:      true,
	})

	svc := NewCouponService(db)
	check, err := svc.Validate(context.Background(), "  summer10 ", 100000)
	require.NoError(t, err)
	assert.True(t, check.Valid)
	assert.Equal(t, int64(10000), check.DiscountAmount)
}

func TestValidateRejectsExpired(t *testing.T) {
	db := newTestDB(t)
	createCoupon(t, db, &models.Coupon{
		Code:          "EXPIRED2024",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 10000,
		IsActive:      true,
		ValidFrom:     time.Now().Add(-48 * time.Hour),
		ValidTo:       time.Now().Add(-24 * time.Hour),
	})

	svc := NewCouponService(db)
	check, err := svc.Validate(context.Background(), "EXPIRED2024", 1000000)
	require.NoError(t, err)
	assert.False(t, check.Valid)
	assert.Equal(t, "coupon has expired", check.Reason)
}

func TestValidateRejectsNotYetValid(t *testing.T) {
	db := newTestDB(t)
	createCoupon(t, db, &models.Coupon{
		Code:          "SOON",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 5000,
		IsActive:      true,
		ValidFrom:     time.Now().Add(24 * time.Hour),
		ValidTo:       time.Now().Add(48 * time.Hour),
	})

	svc := NewCouponService(db)
	check, err := svc.Validate(context.Background(), "SOON", 1000000)
	require.NoError(t, err)
	assert.False(t, check.Valid)
	assert.Equal(t, "coupon is not valid yet", check.Reason)
}

func TestValidateRejectsInactive(t *testing.T) {
	db := newTestDB(t)
	createCoupon(t, db, &models.Coupon{
		Code:          "DISABLED",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 5000,
		IsActive:      false,
	})

	svc := NewCouponService(db)
	check, err := svc.Validate(context.Background(), "DISABLED", 1000000)
	require.NoError(t, err)
	assert.False(t, check.Valid)
	assert.Equal(t, "coupon is no longer active", check.Reason)
}

func TestValidateEnforcesUsageCap(t *testing.T) {
	db := newTestDB(t)
	createCoupon(t, db, &models.Coupon{
		Code:          "ONEUSE",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 5000,
		IsActive:      true,
		UsageLimit:    intPtr(1),
		UsedCount:     1,
	})

	svc := NewCouponService(db)
	check, err := svc.Validate(context.Background(), "ONEUSE", 1000000)
	require.NoError(t, err)
	assert.False(t, check.Valid)
	assert.Equal(t, "coupon usage limit reached", check.Reason)
}

func TestValidateReportsMinOrderShortfall(t *testing.T) {
	db := newTestDB(t)
	createCoupon(t, db, &models.Coupon{
		Code:           "BIGSPENDER",
		DiscountType:   models.DiscountTypeFixed,
		DiscountValue:  50000,
		IsActive:       true,
		MinOrderAmount: int64Ptr(200000),
	})

	svc := NewCouponService(db)
	check, err := svc.Validate(context.Background(), "BIGSPENDER", 150000)
	require.NoError(t, err)
	assert.False(t, check.Valid)
	assert.Equal(t, int64(50000), check.Shortfall)
}

func TestFixedCouponScenario(t *testing.T) {
	db := newTestDB(t)
	createCoupon(t, db, &models.Coupon{
		Code:           "FIXED10K",
		DiscountType:   models.DiscountTypeFixed,
		DiscountValue:  10000,
		IsActive:       true,
		MinOrderAmount: int64Ptr(200000),
	})

	svc := NewCouponService(db)
	check, err := svc.Validate(context.Background(), "FIXED10K", 250000)
	require.NoError(t, err)
	require.True(t, check.Valid)
	assert.Equal(t, int64(10000), check.DiscountAmount)

	summary := testPricing().Summarize(250000, check.DiscountAmount)
	assert.Equal(t, int64(270000), summary.Total)
}

func TestDiscountForPercentageFloorsAndCaps(t *testing.T) {
	coupon := &models.Coupon{
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 15,
	}

	// floor(99999 * 15 / 100) = 14999
	assert.Equal(t, int64(14999), DiscountFor(coupon, 99999))

	coupon.MaxDiscountAmount = int64Ptr(10000)
	assert.Equal(t, int64(10000), DiscountFor(coupon, 99999))
}

func TestDiscountForFixedNeverExceedsSubtotal(t *testing.T) {
	coupon := &models.Coupon{
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 50000,
	}

	assert.Equal(t, int64(20000), DiscountFor(coupon, 20000))
	assert.Equal(t, int64(50000), DiscountFor(coupon, 80000))
}

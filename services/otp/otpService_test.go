package otp

import (
	"regexp"
	"testing"

	orderModel "grocery-delivery/models/order"
	"grocery-delivery/models/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *orderModel.Order) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}, &orderModel.Order{}))

	o := &orderModel.Order{OrderNumber: "GD-3001", CustomerID: 1, Status: orderModel.StatusAssigned}
	require.NoError(t, db.Create(o).Error)

	return NewOTPService(db), o
}

func TestGenerateOTPIsSixDigits(t *testing.T) {
	svc, _ := newTestService(t)

	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 20; i++ {
		code, err := svc.GenerateOTP()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestAssignDeliveryOTP(t *testing.T) {
	svc, o := newTestService(t)

	code, err := svc.AssignDeliveryOTP(o)
	require.NoError(t, err)
	assert.Len(t, code, 6)

	var stored orderModel.Order
	require.NoError(t, svc.DB.First(&stored, o.ID).Error)
	assert.Equal(t, code, stored.DeliveryOTP)
	assert.False(t, stored.OTPVerified)
}

func TestVerifyDeliveryOTP(t *testing.T) {
	svc, o := newTestService(t)

	code, err := svc.AssignDeliveryOTP(o)
	require.NoError(t, err)

	// Wrong code never verifies
	ok, err := svc.VerifyDeliveryOTP(o.ID, "000000")
	require.NoError(t, err)
	assert.False(t, ok)

	var stored orderModel.Order
	require.NoError(t, svc.DB.First(&stored, o.ID).Error)
	assert.False(t, stored.OTPVerified)

	// Correct code verifies, and stays verified on repeat submission
	ok, err = svc.VerifyDeliveryOTP(o.ID, code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyDeliveryOTP(o.ID, code)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.DB.First(&stored, o.ID).Error)
	assert.True(t, stored.OTPVerified)
}

func TestVerifyDeliveryOTPWithoutAssignedCode(t *testing.T) {
	svc, o := newTestService(t)

	// Empty stored OTP must never match an empty or any submission
	ok, err := svc.VerifyDeliveryOTP(o.ID, "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.VerifyDeliveryOTP(9999, "123456")
	assert.Error(t, err)
}

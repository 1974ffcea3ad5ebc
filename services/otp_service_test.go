package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newOTPFixture() (*OTPService, *MemoryCache) {
	cache := NewMemoryCache()
	return NewOTPService(cache, NewLocalOTPProvider(cache)), cache
}

// peekOTP pulls the generated code straight out of the cache, standing
// in for the SMS the customer would normally read it from.
func peekOTP(t *testing.T, cache *MemoryCache, reqID string) string {
	t.Helper()
	raw, err := cache.Get(context.Background(), otpVerifyKeyPrefix+reqID)
	assert.NoError(t, err)
	var record otpRecord
	assert.NoError(t, json.Unmarshal([]byte(raw), &record))
	return record.OTP
}

func TestSendAuthOTPRejectsBadPhone(t *testing.T) {
	svc, _ := newOTPFixture()
	for _, phone := range []string{"", "12345", "123456789012", "98765abcde"} {
		_, err := svc.SendAuthOTP(context.Background(), phone)
		assert.ErrorIs(t, err, ErrInvalidPhone, "phone %q", phone)
	}
}

func TestSendAuthOTPRateLimit(t *testing.T) {
	svc, _ := newOTPFixture()
	ctx := context.Background()
	phone := "9876543210"

	for i := 0; i < maxOTPAttempts; i++ {
		reqID, err := svc.SendAuthOTP(ctx, phone)
		assert.NoError(t, err, "send #%d should be inside the budget", i+1)
		assert.NotEmpty(t, reqID)
	}

	_, err := svc.SendAuthOTP(ctx, phone)
	var rateErr *RateLimitError
	assert.True(t, errors.As(err, &rateErr))
	assert.Greater(t, rateErr.RetryAfter.Seconds(), 0.0)

	// A different phone number has its own budget.
	_, err = svc.SendAuthOTP(ctx, "9876543211")
	assert.NoError(t, err)
}

func TestVerifyAuthOTPWrongCode(t *testing.T) {
	svc, _ := newOTPFixture()
	ctx := context.Background()
	phone := "9876543210"

	reqID, err := svc.SendAuthOTP(ctx, phone)
	assert.NoError(t, err)

	err = svc.VerifyAuthOTP(ctx, phone, reqID, "000000")
	assert.ErrorIs(t, err, ErrOTPInvalid)

	err = svc.VerifyAuthOTP(ctx, phone, "no-such-request", "000000")
	assert.ErrorIs(t, err, ErrOTPInvalid)
}

func TestVerifyAuthOTPChecksPhoneBinding(t *testing.T) {
	svc, cache := newOTPFixture()
	ctx := context.Background()

	reqID, err := svc.SendAuthOTP(ctx, "9876543210")
	assert.NoError(t, err)
	otp := peekOTP(t, cache, reqID)

	// The right code for the wrong phone number must not pass.
	err = svc.VerifyAuthOTP(ctx, "9876543211", reqID, otp)
	assert.ErrorIs(t, err, ErrOTPInvalid)
}

func TestVerifyAuthOTPConsumesCode(t *testing.T) {
	svc, cache := newOTPFixture()
	ctx := context.Background()
	phone := "9876543210"

	reqID, err := svc.SendAuthOTP(ctx, phone)
	assert.NoError(t, err)
	otp := peekOTP(t, cache, reqID)

	assert.NoError(t, svc.VerifyAuthOTP(ctx, phone, reqID, otp))

	// Single use: the same code cannot be replayed.
	err = svc.VerifyAuthOTP(ctx, phone, reqID, otp)
	assert.ErrorIs(t, err, ErrOTPInvalid)
}

func TestSuccessfulVerifyResetsSendBudget(t *testing.T) {
	svc, cache := newOTPFixture()
	ctx := context.Background()
	phone := "9876543210"

	var reqID string
	var err error
	for i := 0; i < maxOTPAttempts; i++ {
		reqID, err = svc.SendAuthOTP(ctx, phone)
		assert.NoError(t, err)
	}

	otp := peekOTP(t, cache, reqID)
	assert.NoError(t, svc.VerifyAuthOTP(ctx, phone, reqID, otp))

	// The full budget is available again.
	for i := 0; i < maxOTPAttempts; i++ {
		_, err = svc.SendAuthOTP(ctx, phone)
		assert.NoError(t, err, "send #%d after reset", i+1)
	}
	_, err = svc.SendAuthOTP(ctx, phone)
	var rateErr *RateLimitError
	assert.True(t, errors.As(err, &rateErr))
}

func TestFailedVerifyKeepsSendBudget(t *testing.T) {
	svc, _ := newOTPFixture()
	ctx := context.Background()
	phone := "9876543210"

	var reqID string
	var err error
	for i := 0; i < maxOTPAttempts; i++ {
		reqID, err = svc.SendAuthOTP(ctx, phone)
		assert.NoError(t, err)
	}

	assert.ErrorIs(t, svc.VerifyAuthOTP(ctx, phone, reqID, "000000"), ErrOTPInvalid)

	_, err = svc.SendAuthOTP(ctx, phone)
	var rateErr *RateLimitError
	assert.True(t, errors.As(err, &rateErr))
}

func TestSignupDataRoundTrip(t *testing.T) {
	svc, _ := newOTPFixture()
	ctx := context.Background()

	type profile struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	in := profile{Name: "Asha", Email: "asha@campus.edu"}
	assert.NoError(t, svc.StoreSignupData(ctx, "9876543210", in))

	var out profile
	assert.NoError(t, svc.TakeSignupData(ctx, "9876543210", &out))
	assert.Equal(t, in, out)

	// Take is destructive.
	err := svc.TakeSignupData(ctx, "9876543210", &out)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/campuseats/backend/utils"
)

// Key namespaces for the auth OTP flow. These must stay disjoint from
// anything keyed by order data, otherwise order confirmation would
// interfere with login throttling.
const (
	otpLimitKeyPrefix  = "otp:limit:"
	otpVerifyKeyPrefix = "otp:verify:"
	signupTempPrefix   = "signup:temp:"
)

const (
	maxOTPAttempts   = 3
	authOTPLength    = 6
	otpVerifyTTL     = 10 * time.Minute
	signupTempTTL    = 10 * time.Minute
	defaultOTPWindow = 24 * time.Hour
)

var phoneNoRe = regexp.MustCompile(`^[0-9]{10}$`)

var (
	ErrInvalidPhone = errors.New("invalid phone number, please provide a 10-digit number")
	ErrOTPInvalid   = errors.New("invalid or expired OTP")
)

// RateLimitError reports that the OTP-send budget for a phone number is
// exhausted. RetryAfter is derived from the remaining window TTL.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("max OTP attempts reached, please try again after %s",
			time.Now().Add(e.RetryAfter).Format("15:04:05"))
	}
	return "max OTP attempts reached, please try again soon"
}

// OTPProvider is the external OTP delivery collaborator. Send returns
// an opaque request id used to correlate the later Verify call.
type OTPProvider interface {
	Send(ctx context.Context, phoneNo string) (reqID string, err error)
	Verify(ctx context.Context, phoneNo, reqID, otp string) error
}

type otpRecord struct {
	PhoneNo string `json:"phone_no"`
	OTP     string `json:"otp"`
}

// LocalOTPProvider generates and checks codes itself, keeping them in
// the cache. It stands in for the SMS vendor outside production; the
// generated code is written to the log instead of being sent.
type LocalOTPProvider struct {
	cache Cache
}

func NewLocalOTPProvider(cache Cache) *LocalOTPProvider {
	return &LocalOTPProvider{cache: cache}
}

func (p *LocalOTPProvider) Send(ctx context.Context, phoneNo string) (string, error) {
	otp := utils.GenerateNumericOTP(authOTPLength)
	reqID := uuid.NewString()

	payload, err := json.Marshal(otpRecord{PhoneNo: phoneNo, OTP: otp})
	if err != nil {
		return "", err
	}
	if err := p.cache.Set(ctx, otpVerifyKeyPrefix+reqID, string(payload), otpVerifyTTL); err != nil {
		return "", err
	}

	if utils.InfoLogger != nil {
		utils.InfoLogger.Printf("DEV OTP for %s: %s (reqId=%s)", phoneNo, otp, reqID)
	}
	return reqID, nil
}

func (p *LocalOTPProvider) Verify(ctx context.Context, phoneNo, reqID, otp string) error {
	raw, err := p.cache.Get(ctx, otpVerifyKeyPrefix+reqID)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return ErrOTPInvalid
		}
		return err
	}

	var record otpRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return ErrOTPInvalid
	}
	if record.PhoneNo != phoneNo || record.OTP != otp {
		return ErrOTPInvalid
	}

	return p.cache.Del(ctx, otpVerifyKeyPrefix+reqID)
}

// OTPService gates login and signup behind a provider-delivered OTP,
// rate-limited per phone number.
type OTPService struct {
	cache    Cache
	provider OTPProvider
	window   time.Duration
}

func NewOTPService(cache Cache, provider OTPProvider) *OTPService {
	window := defaultOTPWindow
	if v := os.Getenv("OTP_LIMIT_WINDOW_HOURS"); v != "" {
		if d, err := time.ParseDuration(v + "h"); err == nil && d > 0 {
			window = d
		}
	}
	return &OTPService{cache: cache, provider: provider, window: window}
}

// SendAuthOTP validates the phone number, enforces the per-phone send
// budget and delegates delivery to the provider. The attempt counter is
// bumped even though the caller may later fail verification; only a
// successful verification resets it.
func (s *OTPService) SendAuthOTP(ctx context.Context, phoneNo string) (string, error) {
	if !phoneNoRe.MatchString(phoneNo) {
		return "", ErrInvalidPhone
	}

	limitKey := otpLimitKeyPrefix + phoneNo
	attempts := 0
	if raw, err := s.cache.Get(ctx, limitKey); err == nil {
		fmt.Sscanf(raw, "%d", &attempts)
	} else if !errors.Is(err, ErrCacheMiss) {
		return "", err
	}

	if attempts >= maxOTPAttempts {
		ttl, err := s.cache.TTL(ctx, limitKey)
		if err != nil {
			return "", err
		}
		return "", &RateLimitError{RetryAfter: ttl}
	}

	reqID, err := s.provider.Send(ctx, phoneNo)
	if err != nil {
		return "", err
	}

	if attempts == 0 {
		if err := s.cache.Set(ctx, limitKey, "1", s.window); err != nil {
			return "", err
		}
	} else {
		if _, err := s.cache.Incr(ctx, limitKey); err != nil {
			return "", err
		}
	}

	return reqID, nil
}

// VerifyAuthOTP checks the code with the provider and, on success,
// clears the phone number's rate-limit counter so the next send is
// treated as attempt #1.
func (s *OTPService) VerifyAuthOTP(ctx context.Context, phoneNo, reqID, otp string) error {
	if !phoneNoRe.MatchString(phoneNo) {
		return ErrInvalidPhone
	}
	if err := s.provider.Verify(ctx, phoneNo, reqID, otp); err != nil {
		return err
	}
	return s.cache.Del(ctx, otpLimitKeyPrefix+phoneNo)
}

// StoreSignupData parks a pending signup profile until its OTP is
// verified.
func (s *OTPService) StoreSignupData(ctx context.Context, phoneNo string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, signupTempPrefix+phoneNo, string(payload), signupTempTTL)
}

// TakeSignupData retrieves and deletes a pending signup profile.
// Returns ErrCacheMiss if none is parked for the phone number.
func (s *OTPService) TakeSignupData(ctx context.Context, phoneNo string, out interface{}) error {
	raw, err := s.cache.Get(ctx, signupTempPrefix+phoneNo)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return err
	}
	return s.cache.Del(ctx, signupTempPrefix+phoneNo)
}

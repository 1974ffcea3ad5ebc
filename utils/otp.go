package utils

import (
	"math/rand"
)

const otpDigits = "0123456789"

// GenerateNumericOTP returns a random numeric code of the given length.
// Used for the 4-digit order pickup code and the dev auth OTP.
func GenerateNumericOTP(length int) string {
	otp := make([]byte, length)
	for i := range otp {
		otp[i] = otpDigits[rand.Intn(len(otpDigits))]
	}
	return string(otp)
}

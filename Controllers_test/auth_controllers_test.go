package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// readDeliveredOTP fetches the code the provider parked in the cache,
// standing in for the SMS the user would read it from.
func readDeliveredOTP(t *testing.T, env *testEnv, reqID string) string {
	t.Helper()
	raw, err := env.cache.Get(context.Background(), "otp:verify:"+reqID)
	assert.NoError(t, err)
	var record struct {
		PhoneNo string `json:"phone_no"`
		OTP     string `json:"otp"`
	}
	assert.NoError(t, json.Unmarshal([]byte(raw), &record))
	return record.OTP
}

func TestSignupVerifyLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	phone := "9123456780"

	// Signup parks the profile and sends an OTP.
	w := env.doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]interface{}{
		"phone_no": phone,
		"role":     "customer",
		"name":     "Meera",
		"course":   "ECE",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reqID, _ := dataOf(t, w)["req_id"].(string)
	assert.NotEmpty(t, reqID)

	// No account exists until the OTP is verified.
	otp := readDeliveredOTP(t, env, reqID)
	w = env.doJSON(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]interface{}{
		"phone_no": phone,
		"otp":      otp,
		"req_id":   reqID,
		"role":     "customer",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := w.Result()
	access := cookieNamed(resp, "accessToken")
	refresh := cookieNamed(resp, "refreshToken")
	assert.NotNil(t, access)
	assert.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)

	user, _ := dataOf(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "Meera", user["name"])
	assert.Equal(t, phone, user["phone_no"])

	// The session cookie works against a protected route.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(access)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Login with the now existing account.
	w = env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"phone_no": phone,
		"role":     "customer",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reqID, _ = dataOf(t, w)["req_id"].(string)

	otp = readDeliveredOTP(t, env, reqID)
	w = env.doJSON(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]interface{}{
		"phone_no": phone,
		"otp":      otp,
		"req_id":   reqID,
		"role":     "customer",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Login successful", decodeBody(t, w)["message"])
}

func TestSignupRejectsKnownPhoneAndStores(t *testing.T) {
	env := newTestEnv(t)

	// Seeded customer phone.
	w := env.doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]interface{}{
		"phone_no": "9876543210",
		"role":     "customer",
		"name":     "Duplicate",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Store self-signup is not served by this route.
	w = env.doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]interface{}{
		"phone_no": "9123456799",
		"role":     "store",
		"name":     "New Stall",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginUnknownPhone(t *testing.T) {
	env := newTestEnv(t)
	w := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"phone_no": "9000099999",
		"role":     "customer",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoreLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	phone := "9000000001" // seeded store

	w := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"phone_no": phone,
		"role":     "store",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reqID, _ := dataOf(t, w)["req_id"].(string)

	otp := readDeliveredOTP(t, env, reqID)
	w = env.doJSON(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]interface{}{
		"phone_no": phone,
		"otp":      otp,
		"req_id":   reqID,
		"role":     "store",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Store login successful", decodeBody(t, w)["message"])
	assert.NotNil(t, cookieNamed(w.Result(), "accessToken"))
}

func TestVerifyOTPWrongCode(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/send-otp", "", map[string]interface{}{
		"phone_no": "9876543210",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	reqID, _ := dataOf(t, w)["req_id"].(string)

	w = env.doJSON(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]interface{}{
		"phone_no": "9876543210",
		"otp":      "000000",
		"req_id":   reqID,
		"role":     "customer",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Result().Cookies(), "no session on a failed verification")
}

func TestSendOTPThrottledOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	payload := map[string]interface{}{"phone_no": "9876543210"}

	for i := 0; i < 3; i++ {
		w := env.doJSON(t, http.MethodPost, "/api/auth/send-otp", "", payload)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := env.doJSON(t, http.MethodPost, "/api/auth/send-otp", "", payload)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	env := newTestEnv(t)
	phone := "9876543210" // seeded customer

	w := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"phone_no": phone,
		"role":     "customer",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	reqID, _ := dataOf(t, w)["req_id"].(string)

	otp := readDeliveredOTP(t, env, reqID)
	w = env.doJSON(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]interface{}{
		"phone_no": phone,
		"otp":      otp,
		"req_id":   reqID,
		"role":     "customer",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	refresh := cookieNamed(w.Result(), "refreshToken")
	assert.NotNil(t, refresh)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(refresh)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotNil(t, cookieNamed(rec.Result(), "accessToken"))

	// Without the cookie the refresh is rejected.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.doJSON(t, http.MethodGet, "/api/auth/me", customerToken(t, 1), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	user, _ := dataOf(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "Asha", user["name"])
}

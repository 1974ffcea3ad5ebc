package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campuseats/backend/models"
	"github.com/campuseats/backend/services"
	"github.com/campuseats/backend/utils"
)

type AuthController struct {
	DB  *gorm.DB
	OTP *services.OTPService
}

func NewAuthController(db *gorm.DB, otp *services.OTPService) *AuthController {
	return &AuthController{DB: db, OTP: otp}
}

type signupPayload struct {
	PhoneNo string  `json:"phone_no"`
	Name    string  `json:"name"`
	Email   *string `json:"email,omitempty"`
	Course  *string `json:"course,omitempty"`
	College *string `json:"college,omitempty"`
}

func respondOTPError(c *gin.Context, err error) {
	var rateErr *services.RateLimitError
	switch {
	case errors.Is(err, services.ErrInvalidPhone), errors.Is(err, services.ErrOTPInvalid):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &rateErr):
		utils.RespondError(c, http.StatusTooManyRequests, err)
	default:
		utils.ErrorLogger.Printf("OTP request failed: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
	}
}

// issueSession mints the access and refresh credentials and delivers
// them as http-only cookies scoped to the credential lifetime.
func (ac *AuthController) issueSession(c *gin.Context, role string, customerID, storeID uint) error {
	accessToken, err := utils.GenerateAccessToken(role, customerID, storeID)
	if err != nil {
		return err
	}
	refreshToken, err := utils.GenerateRefreshToken(role, customerID, storeID)
	if err != nil {
		return err
	}

	secure := gin.Mode() == gin.ReleaseMode
	if secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie("accessToken", accessToken, int(utils.AccessTokenTTL.Seconds()), "/", "", secure, true)
	c.SetCookie("refreshToken", refreshToken, int(utils.RefreshTokenTTL.Seconds()), "/", "", secure, true)
	return nil
}

// SendOTP -> POST /api/auth/send-otp
func (ac *AuthController) SendOTP(c *gin.Context) {
	var req struct {
		PhoneNo string `json:"phone_no" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	reqID, err := ac.OTP.SendAuthOTP(c.Request.Context(), req.PhoneNo)
	if err != nil {
		respondOTPError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "OTP sent successfully", gin.H{
		"req_id":   reqID,
		"phone_no": req.PhoneNo,
	})
}

// Signup -> POST /api/auth/signup
// Parks the profile until the OTP is verified; the customer row is only
// created in VerifyOTP. Store onboarding is handled out of band.
func (ac *AuthController) Signup(c *gin.Context) {
	var req struct {
		PhoneNo string  `json:"phone_no" binding:"required"`
		Role    string  `json:"role" binding:"required,oneof=customer store"`
		Name    string  `json:"name" binding:"required"`
		Email   *string `json:"email" binding:"omitempty,email"`
		Course  *string `json:"course"`
		College *string `json:"college"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Role != utils.RoleCustomer {
		utils.RespondError(c, http.StatusBadRequest, errors.New("store signup is currently disabled via this route"))
		return
	}

	var existing models.Customer
	if err := ac.DB.Where("phone_no = ?", req.PhoneNo).First(&existing).Error; err == nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("phone number already registered"))
		return
	}

	reqID, err := ac.OTP.SendAuthOTP(c.Request.Context(), req.PhoneNo)
	if err != nil {
		respondOTPError(c, err)
		return
	}

	payload := signupPayload{
		PhoneNo: req.PhoneNo,
		Name:    req.Name,
		Email:   req.Email,
		Course:  req.Course,
		College: req.College,
	}
	if err := ac.OTP.StoreSignupData(c.Request.Context(), req.PhoneNo, payload); err != nil {
		utils.ErrorLogger.Printf("failed to park signup data: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "OTP sent successfully, please verify to complete signup", gin.H{
		"req_id":   reqID,
		"phone_no": req.PhoneNo,
	})
}

// Login -> POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req struct {
		PhoneNo string `json:"phone_no" binding:"required"`
		Role    string `json:"role" binding:"required,oneof=customer store"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !ac.principalExists(req.Role, req.PhoneNo) {
		utils.RespondError(c, http.StatusNotFound, errors.New("not registered, please sign up first"))
		return
	}

	reqID, err := ac.OTP.SendAuthOTP(c.Request.Context(), req.PhoneNo)
	if err != nil {
		respondOTPError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "OTP sent successfully", gin.H{
		"req_id":   reqID,
		"phone_no": req.PhoneNo,
	})
}

func (ac *AuthController) principalExists(role, phoneNo string) bool {
	var count int64
	if role == utils.RoleStore {
		ac.DB.Model(&models.Store{}).Where("phone_no = ?", phoneNo).Count(&count)
	} else {
		ac.DB.Model(&models.Customer{}).Where("phone_no = ?", phoneNo).Count(&count)
	}
	return count > 0
}

// VerifyOTP -> POST /api/auth/verify-otp
// Verifies the auth OTP, then either logs the principal in or completes
// a parked customer signup.
func (ac *AuthController) VerifyOTP(c *gin.Context) {
	var req struct {
		PhoneNo string `json:"phone_no" binding:"required"`
		OTP     string `json:"otp" binding:"required"`
		ReqID   string `json:"req_id" binding:"required"`
		Role    string `json:"role" binding:"required,oneof=customer store"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := ac.OTP.VerifyAuthOTP(c.Request.Context(), req.PhoneNo, req.ReqID, req.OTP); err != nil {
		respondOTPError(c, err)
		return
	}

	if req.Role == utils.RoleStore {
		var store models.Store
		if err := ac.DB.Where("phone_no = ?", req.PhoneNo).First(&store).Error; err == nil {
			if err := ac.issueSession(c, utils.RoleStore, 0, store.ID); err != nil {
				utils.ErrorLogger.Printf("failed to issue session: %v", err)
				utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
				return
			}
			utils.RespondJSON(c, http.StatusOK, "Store login successful", gin.H{
				"user_type": utils.RoleStore,
				"user":      store,
			})
			return
		}
		utils.RespondJSON(c, http.StatusOK, "OTP verified, please complete your registration", gin.H{
			"user_type": utils.RoleStore,
			"phone_no":  req.PhoneNo,
		})
		return
	}

	var customer models.Customer
	if err := ac.DB.Where("phone_no = ?", req.PhoneNo).First(&customer).Error; err == nil {
		if err := ac.issueSession(c, utils.RoleCustomer, customer.ID, 0); err != nil {
			utils.ErrorLogger.Printf("failed to issue session: %v", err)
			utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
			"user_type": utils.RoleCustomer,
			"user":      customer,
		})
		return
	}

	// No account yet: complete a parked signup if one exists.
	var parked signupPayload
	if err := ac.OTP.TakeSignupData(c.Request.Context(), req.PhoneNo, &parked); err == nil {
		customer = models.Customer{
			PhoneNo: parked.PhoneNo,
			Name:    parked.Name,
			Email:   parked.Email,
			Course:  parked.Course,
			College: parked.College,
		}
		if err := ac.DB.Create(&customer).Error; err != nil {
			utils.ErrorLogger.Printf("failed to create customer: %v", err)
			utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
			return
		}
		if err := ac.issueSession(c, utils.RoleCustomer, customer.ID, 0); err != nil {
			utils.ErrorLogger.Printf("failed to issue session: %v", err)
			utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
			return
		}
		utils.InfoLogger.Printf("New customer registered: %s", customer.PhoneNo)
		utils.RespondJSON(c, http.StatusCreated, "Registration successful", gin.H{
			"user_type": utils.RoleCustomer,
			"user":      customer,
		})
		return
	}

	utils.RespondJSON(c, http.StatusOK, "OTP verified, please complete your registration", gin.H{
		"user_type": utils.RoleCustomer,
		"phone_no":  req.PhoneNo,
	})
}

// Refresh -> POST /api/auth/refresh
func (ac *AuthController) Refresh(c *gin.Context) {
	token, err := c.Cookie("refreshToken")
	if err != nil || token == "" {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("refresh token is required"))
		return
	}

	claims, err := utils.ParseRefreshToken(token)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid or expired refresh token"))
		return
	}

	accessToken, err := utils.GenerateAccessToken(claims.Role, claims.CustomerID, claims.StoreID)
	if err != nil {
		utils.ErrorLogger.Printf("failed to refresh access token: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}

	secure := gin.Mode() == gin.ReleaseMode
	if secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie("accessToken", accessToken, int(utils.AccessTokenTTL.Seconds()), "/", "", secure, true)

	utils.RespondJSON(c, http.StatusOK, "Access token refreshed successfully", nil)
}

// Me -> GET /api/auth/me
func (ac *AuthController) Me(c *gin.Context) {
	actor := currentActor(c)

	if actor.IsCustomer() {
		var customer models.Customer
		if err := ac.DB.First(&customer, actor.CustomerID).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, errors.New("customer profile not found"))
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Profile", gin.H{"role": actor.Role, "user": customer})
		return
	}

	var store models.Store
	if err := ac.DB.First(&store, actor.StoreID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("store profile not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile", gin.H{"role": actor.Role, "user": store})
}

package utils

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal roles carried in every credential.
const (
	RoleCustomer = "customer"
	RoleStore    = "store"
)

var (
	accessSecret  []byte
	refreshSecret []byte

	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

func init() {
	access := os.Getenv("JWT_ACCESS_SECRET")
	if access == "" {
		log.Printf("Warning: JWT_ACCESS_SECRET not set, using default development secret")
		access = "CampusEatsAccessDev1945"
	}
	refresh := os.Getenv("JWT_REFRESH_SECRET")
	if refresh == "" {
		log.Printf("Warning: JWT_REFRESH_SECRET not set, using default development secret")
		refresh = "CampusEatsRefreshDev1945"
	}
	accessSecret = []byte(access)
	refreshSecret = []byte(refresh)

	if v := os.Getenv("ACCESS_TOKEN_TTL_MIN"); v != "" {
		if d, err := time.ParseDuration(v + "m"); err == nil {
			AccessTokenTTL = d
		}
	}
	if v := os.Getenv("REFRESH_TOKEN_TTL_HOURS"); v != "" {
		if d, err := time.ParseDuration(v + "h"); err == nil {
			RefreshTokenTTL = d
		}
	}
}

// AuthClaims binds a credential to a role and exactly one entity id.
type AuthClaims struct {
	Role       string `json:"role"`
	CustomerID uint   `json:"customer_id,omitempty"`
	StoreID    uint   `json:"store_id,omitempty"`
	jwt.RegisteredClaims
}

func GenerateAccessToken(role string, customerID, storeID uint) (string, error) {
	return generateToken(role, customerID, storeID, AccessTokenTTL, accessSecret)
}

func GenerateRefreshToken(role string, customerID, storeID uint) (string, error) {
	return generateToken(role, customerID, storeID, RefreshTokenTTL, refreshSecret)
}

func generateToken(role string, customerID, storeID uint, ttl time.Duration, secret []byte) (string, error) {
	claims := &AuthClaims{
		Role:       role,
		CustomerID: customerID,
		StoreID:    storeID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "campus-eats",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseAccessToken validates an access credential. It fails closed: any
// malformed, forged or expired token comes back as an error, never a panic.
func ParseAccessToken(tokenString string) (*AuthClaims, error) {
	return parseToken(tokenString, accessSecret)
}

// ParseRefreshToken validates a refresh credential.
func ParseRefreshToken(tokenString string) (*AuthClaims, error) {
	return parseToken(tokenString, refreshSecret)
}

func parseToken(tokenString string, secret []byte) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	if claims.Role != RoleCustomer && claims.Role != RoleStore {
		return nil, errors.New("unknown role in token")
	}

	return claims, nil
}

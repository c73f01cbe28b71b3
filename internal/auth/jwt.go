package auth

import (
	"time"

	"bloodbank-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTCustomClaims struct {
	FacilityID uint                `json:"facility_id"`
	Email      string              `json:"email"`
	Role       models.FacilityRole `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, facility *models.Facility) (string, error) {
	claims := &JWTCustomClaims{
		FacilityID: facility.ID,
		Email:      facility.Email,
		Role:       facility.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)), // 1 gün
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

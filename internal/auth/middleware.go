package auth

import (
	"fmt"
	"strings"

	"bloodbank-backend/internal/config"
	"bloodbank-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxFacilityIDKey   = "facility_id"
	CtxFacilityRoleKey = "facility_role"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header eksik")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization formatı 'Bearer <token>' olmalı")
		}

		tokenStr := parts[1]

		token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("geçersiz imzalama yöntemi")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Geçersiz veya süresi dolmuş token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Token çözümlenemedi")
		}

		c.Locals(CtxFacilityIDKey, claims.FacilityID)
		c.Locals(CtxFacilityRoleKey, claims.Role)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.FacilityRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(CtxFacilityRoleKey)
		role, ok := roleVal.(models.FacilityRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
	}
}

// FacilityID: Middleware'in locals'a koyduğu tesis id'sini okur
func FacilityID(c *fiber.Ctx) (uint, error) {
	idVal := c.Locals(CtxFacilityIDKey)
	id, ok := idVal.(uint)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Tesis bilgisi alınamadı")
	}
	return id, nil
}

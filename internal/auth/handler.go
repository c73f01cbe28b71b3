package auth

import (
	"strings"

	"bloodbank-backend/internal/config"
	"bloodbank-backend/internal/database"
	"bloodbank-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterFacilityRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
	Role     string `json:"role"` // "hospital" veya "blood_lab"
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func RegisterFacilityHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterFacilityRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if body.Email == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, email ve şifre zorunlu")
		}

		role := models.FacilityRole(body.Role)
		if role != models.RoleHospital && role != models.RoleBloodLab {
			return fiber.NewError(fiber.StatusBadRequest, "Rol 'hospital' veya 'blood_lab' olmalı")
		}

		var count int64
		database.DB.Model(&models.Facility{}).
			Where("email = ?", body.Email).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu email ile kayıtlı bir tesis zaten var")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		facility := models.Facility{
			Name:         body.Name,
			Email:        body.Email,
			Phone:        body.Phone,
			Address:      body.Address,
			PasswordHash: string(hash),
			Role:         role,
		}

		if err := database.DB.Create(&facility).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tesis oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    facility.ID,
			"name":  facility.Name,
			"email": facility.Email,
			"role":  facility.Role,
		})
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var facility models.Facility
		if err := database.DB.Where("email = ?", body.Email).First(&facility).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(facility.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		token, err := GenerateToken(cfg.JWTSecret, &facility)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"facility": fiber.Map{
				"id":    facility.ID,
				"name":  facility.Name,
				"email": facility.Email,
				"phone": facility.Phone,
				"role":  facility.Role,
			},
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		facilityID, err := FacilityID(c)
		if err != nil {
			return err
		}

		var facility models.Facility
		if err := database.DB.First(&facility, facilityID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tesis bulunamadı")
		}

		return c.JSON(fiber.Map{
			"id":      facility.ID,
			"name":    facility.Name,
			"email":   facility.Email,
			"phone":   facility.Phone,
			"address": facility.Address,
			"role":    facility.Role,
		})
	}
}

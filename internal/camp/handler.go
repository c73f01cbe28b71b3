package camp

import (
	"strings"
	"time"

	"bloodbank-backend/internal/auth"
	"bloodbank-backend/internal/database"
	"bloodbank-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateCampRequest struct {
	Name  string `json:"name"`
	Place string `json:"place"`
	Date  string `json:"date"` // "2026-09-01"
}

type CampResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Place string `json:"place"`
	Date  string `json:"date"`
}

// POST /api/lab/camps
// Kamplar bağış girişi için referans noktasıdır; stoğa etkileri Donation
// kayıtları üzerinden olur
func CreateCampHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		labID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		var body CreateCampRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kamp adı zorunlu")
		}

		d, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		camp := models.BloodCamp{
			FacilityID: labID,
			Name:       body.Name,
			Place:      body.Place,
			Date:       d,
		}

		if err := database.DB.Create(&camp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kamp oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toCampResponse(&camp))
	}
}

// GET /api/lab/camps
func ListCampsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		labID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		var camps []models.BloodCamp
		if err := database.DB.
			Where("facility_id = ?", labID).
			Order("date DESC").
			Find(&camps).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kamplar yüklenemedi")
		}

		resp := make([]CampResponse, 0, len(camps))
		for i := range camps {
			resp = append(resp, toCampResponse(&camps[i]))
		}

		return c.JSON(resp)
	}
}

func toCampResponse(camp *models.BloodCamp) CampResponse {
	return CampResponse{
		ID:    camp.ID,
		Name:  camp.Name,
		Place: camp.Place,
		Date:  camp.Date.Format("2006-01-02"),
	}
}

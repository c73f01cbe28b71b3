package donor

import (
	"strings"

	"bloodbank-backend/internal/auth"
	"bloodbank-backend/internal/database"
	"bloodbank-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateDonorRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	BloodGroup string `json:"blood_group"`
}

type DonorResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	BloodGroup string `json:"blood_group"`
	CreatedAt  string `json:"created_at"`
}

// POST /api/lab/donors
func CreateDonorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		labID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		var body CreateDonorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Bağışçı adı zorunlu")
		}
		if !models.IsValidBloodGroup(body.BloodGroup) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kan grubu")
		}

		donor := models.Donor{
			FacilityID: labID,
			Name:       body.Name,
			Email:      strings.TrimSpace(strings.ToLower(body.Email)),
			Phone:      body.Phone,
			BloodGroup: body.BloodGroup,
		}

		if err := database.DB.Create(&donor).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bağışçı kaydedilemedi")
		}

		return c.Status(fiber.StatusCreated).JSON(toDonorResponse(&donor))
	}
}

// GET /api/lab/donors
func ListDonorsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		labID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		var donors []models.Donor
		if err := database.DB.
			Where("facility_id = ?", labID).
			Order("created_at DESC").
			Find(&donors).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bağışçılar yüklenemedi")
		}

		resp := make([]DonorResponse, 0, len(donors))
		for i := range donors {
			resp = append(resp, toDonorResponse(&donors[i]))
		}

		return c.JSON(resp)
	}
}

func toDonorResponse(d *models.Donor) DonorResponse {
	return DonorResponse{
		ID:         d.ID,
		Name:       d.Name,
		Email:      d.Email,
		Phone:      d.Phone,
		BloodGroup: d.BloodGroup,
		CreatedAt:  d.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

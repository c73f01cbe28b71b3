package facility

import (
	"bloodbank-backend/internal/database"
	"bloodbank-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type LabInfo struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// GET /api/facilities/labs
// Hastanelerin istek göndereceği laboratuvar listesi
func ListLabsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var labs []models.Facility
		if err := database.DB.
			Where("role = ?", models.RoleBloodLab).
			Order("name ASC").
			Find(&labs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Laboratuvarlar yüklenemedi")
		}

		resp := make([]LabInfo, 0, len(labs))
		for _, lab := range labs {
			resp = append(resp, LabInfo{
				ID:      lab.ID,
				Name:    lab.Name,
				Email:   lab.Email,
				Phone:   lab.Phone,
				Address: lab.Address,
			})
		}

		return c.JSON(resp)
	}
}

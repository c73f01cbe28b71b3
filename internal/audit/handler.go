package audit

import (
	"bloodbank-backend/internal/auth"
	"bloodbank-backend/internal/database"
	"bloodbank-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs
// Çağıran tesisin iz kayıtlarını en yeniden eskiye listeler
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		facilityID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		var logs []models.AuditLog
		if err := database.DB.
			Where("facility_id = ?", facilityID).
			Order("created_at DESC").
			Limit(limit).
			Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kayıtlar yüklenemedi")
		}

		return c.JSON(logs)
	}
}

package dashboard

import (
	"bloodbank-backend/internal/auth"
	"bloodbank-backend/internal/database"
	"bloodbank-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type StockSummary struct {
	BloodGroup string `json:"blood_group"`
	Quantity   int    `json:"quantity"`
}

type LabDashboardResponse struct {
	Stock           []StockSummary `json:"stock"`
	TotalUnits      int            `json:"total_units"`
	PendingRequests int64          `json:"pending_requests"`
	DonorCount      int64          `json:"donor_count"`
	DonationCount   int64          `json:"donation_count"`
	CampCount       int64          `json:"camp_count"`
}

// GET /api/lab/dashboard
func LabDashboardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		labID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		var stocks []models.BloodStock
		if err := database.DB.
			Where("facility_id = ?", labID).
			Find(&stocks).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok yüklenemedi")
		}

		byGroup := make(map[string]int, len(stocks))
		totalUnits := 0
		for _, s := range stocks {
			byGroup[s.BloodGroup] = s.Quantity
			totalUnits += s.Quantity
		}

		summary := make([]StockSummary, 0, len(models.BloodGroups))
		for _, g := range models.BloodGroups {
			summary = append(summary, StockSummary{BloodGroup: g, Quantity: byGroup[g]})
		}

		resp := LabDashboardResponse{
			Stock:      summary,
			TotalUnits: totalUnits,
		}

		database.DB.Model(&models.BloodRequest{}).
			Where("blood_lab_id = ? AND status = ?", labID, models.RequestStatusPending).
			Count(&resp.PendingRequests)
		database.DB.Model(&models.Donor{}).
			Where("facility_id = ?", labID).
			Count(&resp.DonorCount)
		database.DB.Model(&models.Donation{}).
			Where("facility_id = ?", labID).
			Count(&resp.DonationCount)
		database.DB.Model(&models.BloodCamp{}).
			Where("facility_id = ?", labID).
			Count(&resp.CampCount)

		return c.JSON(resp)
	}
}

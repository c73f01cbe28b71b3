package donor

import (
	"fmt"
	"log"

	"bloodbank-backend/internal/audit"
	"bloodbank-backend/internal/auth"
	"bloodbank-backend/internal/database"
	"bloodbank-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RecordDonationRequest struct {
	DonorID    uint   `json:"donor_id"`
	BloodGroup string `json:"blood_group"`
	Units      int    `json:"units"`
	CampID     *uint  `json:"camp_id"` // Kampta yapıldıysa
}

type DonationResponse struct {
	ID         uint   `json:"id"`
	DonorID    uint   `json:"donor_id"`
	DonorName  string `json:"donor_name"`
	CampID     *uint  `json:"camp_id,omitempty"`
	BloodGroup string `json:"blood_group"`
	Units      int    `json:"units"`
	CreatedAt  string `json:"created_at"`
}

// POST /api/lab/donations
// Bağış kaydı ve stok artışı tek transaction içinde yapılır
func RecordDonationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		labID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		var body RecordDonationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.DonorID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bağışçı zorunlu")
		}
		if !models.IsValidBloodGroup(body.BloodGroup) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kan grubu")
		}
		if body.Units < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Ünite sayısı en az 1 olmalı")
		}

		var d models.Donor
		if err := database.DB.First(&d, "id = ? AND facility_id = ?", body.DonorID, labID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bağışçı bulunamadı")
		}

		if body.CampID != nil {
			var camp models.BloodCamp
			if err := database.DB.First(&camp, "id = ? AND facility_id = ?", *body.CampID, labID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kamp bulunamadı")
			}
		}

		donation := models.Donation{
			FacilityID: labID,
			DonorID:    body.DonorID,
			CampID:     body.CampID,
			BloodGroup: body.BloodGroup,
			Units:      body.Units,
		}

		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem başlatılamadı")
		}

		if err := tx.Create(&donation).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Bağış kaydedilemedi")
		}

		// Stok artışı: kayıt yoksa oluştur, miktarı atomik UPDATE ile artır
		stock := models.BloodStock{FacilityID: labID, BloodGroup: body.BloodGroup}
		if err := tx.Where("facility_id = ? AND blood_group = ?", labID, body.BloodGroup).
			FirstOrCreate(&stock).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Stok güncellenemedi")
		}
		if err := tx.Model(&models.BloodStock{}).
			Where("id = ?", stock.ID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", body.Units)).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Stok güncellenemedi")
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			FacilityID:  labID,
			EntityType:  "donation",
			EntityID:    donation.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Bağış kaydedildi: %s, %d ünite %s", d.Name, body.Units, body.BloodGroup),
			After:       donation,
		}); logErr != nil {
			log.Printf("Audit log yazılamadı: %v", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(DonationResponse{
			ID:         donation.ID,
			DonorID:    donation.DonorID,
			DonorName:  d.Name,
			CampID:     donation.CampID,
			BloodGroup: donation.BloodGroup,
			Units:      donation.Units,
			CreatedAt:  donation.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// GET /api/lab/donations
func ListDonationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		labID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		var donations []models.Donation
		if err := database.DB.
			Preload("Donor").
			Where("facility_id = ?", labID).
			Order("created_at DESC").
			Find(&donations).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bağışlar yüklenemedi")
		}

		resp := make([]DonationResponse, 0, len(donations))
		for i := range donations {
			dn := &donations[i]
			resp = append(resp, DonationResponse{
				ID:         dn.ID,
				DonorID:    dn.DonorID,
				DonorName:  dn.Donor.Name,
				CampID:     dn.CampID,
				BloodGroup: dn.BloodGroup,
				Units:      dn.Units,
				CreatedAt:  dn.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(resp)
	}
}

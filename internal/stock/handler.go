package stock

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

type StockMutationRequest struct {
	BloodGroup string `json:"blood_group"`
	Quantity   int    `json:"quantity"`
}

type StockResponse struct {
	BloodGroup string `json:"blood_group"`
	Quantity   int    `json:"quantity"`
}

// addStock: (laboratuvar, kan grubu) kaydını yoksa oluşturur, miktarı
// atomik UPDATE ile artırır. İstek kabulündeki düşümle aynı disiplin.
func addStock(tx *gorm.DB, facilityID uint, bloodGroup string, quantity int) error {
	stock := models.BloodStock{FacilityID: facilityID, BloodGroup: bloodGroup}
	if err := tx.Where("facility_id = ? AND blood_group = ?", facilityID, bloodGroup).
		FirstOrCreate(&stock).Error; err != nil {
		return err
	}

	return tx.Model(&models.BloodStock{}).
		Where("id = ?", stock.ID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", quantity)).Error
}

// POST /api/lab/blood/add
func AddBloodStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		labID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		var body StockMutationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if !models.IsValidBloodGroup(body.BloodGroup) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kan grubu")
		}
		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Miktar pozitif olmalı")
		}

		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem başlatılamadı")
		}

		if err := addStock(tx, labID, body.BloodGroup, body.Quantity); err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Stok eklenemedi")
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			FacilityID:  labID,
			EntityType:  "blood_stock",
			Action:      models.AuditActionAdd,
			Description: fmt.Sprintf("%d ünite %s stoğa eklendi", body.Quantity, body.BloodGroup),
			After:       fiber.Map{"blood_group": body.BloodGroup, "quantity": body.Quantity},
		}); logErr != nil {
			log.Printf("Audit log yazılamadı: %v", logErr)
		}

		return c.JSON(fiber.Map{"message": "Stok eklendi"})
	}
}

// POST /api/lab/blood/remove
// Koşullu düşüm: miktar yetmiyorsa hiçbir satır etkilenmez, stok negatife düşemez
func RemoveBloodStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		labID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		var body StockMutationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if !models.IsValidBloodGroup(body.BloodGroup) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kan grubu")
		}
		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Miktar pozitif olmalı")
		}

		res := database.DB.Model(&models.BloodStock{}).
			Where("facility_id = ? AND blood_group = ? AND quantity >= ?",
				labID, body.BloodGroup, body.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", body.Quantity))
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok güncellenemedi")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Yeterli stok yok")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			FacilityID:  labID,
			EntityType:  "blood_stock",
			Action:      models.AuditActionRemove,
			Description: fmt.Sprintf("%d ünite %s stoktan çıkarıldı", body.Quantity, body.BloodGroup),
			After:       fiber.Map{"blood_group": body.BloodGroup, "quantity": body.Quantity},
		}); logErr != nil {
			log.Printf("Audit log yazılamadı: %v", logErr)
		}

		return c.JSON(fiber.Map{"message": "Stok çıkarıldı"})
	}
}

// GET /api/lab/blood/stock
// 8 kan grubunun tamamını döner, kaydı olmayan gruplar 0 görünür
func GetBloodStockHandler() fiber.Handler {
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
		for _, s := range stocks {
			byGroup[s.BloodGroup] = s.Quantity
		}

		resp := make([]StockResponse, 0, len(models.BloodGroups))
		for _, g := range models.BloodGroups {
			resp = append(resp, StockResponse{BloodGroup: g, Quantity: byGroup[g]})
		}

		return c.JSON(resp)
	}
}

package stock

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"bloodbank-backend/internal/audit"
	"bloodbank-backend/internal/auth"
	"bloodbank-backend/internal/database"
	"bloodbank-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type ImportResult struct {
	Imported    int      `json:"imported"`
	TotalUnits  int      `json:"total_units"`
	SkippedRows []string `json:"skipped_rows"`
}

// POST /api/lab/blood/import
// XLSX dosyasından toplu stok girişi. Beklenen format: ilk kolon kan grubu,
// ikinci kolon ünite sayısı. Başlık satırı varsa atlanır.
func ImportBloodStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		labID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: "+err.Error())
		}

		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx dosyaları yüklenebilir")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı: "+err.Error())
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası okunamadı: "+err.Error())
		}
		defer excelFile.Close()

		sheetList := excelFile.GetSheetList()
		if len(sheetList) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyasında sheet bulunamadı")
		}

		rows, err := excelFile.GetRows(sheetList[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sheet okunamadı: "+err.Error())
		}

		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası boş")
		}

		// İlk satır başlık satırı mı? ("KAN GRUBU", "BLOOD GROUP" vb.)
		startIndex := 0
		if len(rows[0]) > 0 {
			firstCell := strings.ToUpper(strings.TrimSpace(rows[0][0]))
			if strings.Contains(firstCell, "KAN") || strings.Contains(firstCell, "BLOOD") || strings.Contains(firstCell, "GRUP") {
				startIndex = 1
			}
		}

		// Önce tüm satırları doğrula, grup bazında topla
		totals := make(map[string]int)
		result := ImportResult{SkippedRows: make([]string, 0)}

		for i := startIndex; i < len(rows); i++ {
			row := rows[i]
			if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
				continue
			}

			group := strings.ToUpper(strings.TrimSpace(row[0]))
			if !models.IsValidBloodGroup(group) {
				result.SkippedRows = append(result.SkippedRows, fmt.Sprintf("Satır %d: geçersiz kan grubu '%s'", i+1, row[0]))
				continue
			}

			if len(row) < 2 {
				result.SkippedRows = append(result.SkippedRows, fmt.Sprintf("Satır %d: miktar kolonu yok", i+1))
				continue
			}

			qty, err := strconv.Atoi(strings.TrimSpace(row[1]))
			if err != nil || qty <= 0 {
				result.SkippedRows = append(result.SkippedRows, fmt.Sprintf("Satır %d: geçersiz miktar '%s'", i+1, row[1]))
				continue
			}

			totals[group] += qty
			result.Imported++
			result.TotalUnits += qty
		}

		if result.Imported == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Dosyada geçerli stok satırı bulunamadı")
		}

		// Tüm artışları tek transaction içinde uygula
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem başlatılamadı")
		}

		for group, qty := range totals {
			if err := addStock(tx, labID, group, qty); err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Stok eklenemedi")
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			FacilityID:  labID,
			EntityType:  "blood_stock",
			Action:      models.AuditActionAdd,
			Description: fmt.Sprintf("Excel'den toplu stok girişi: %d satır, %d ünite", result.Imported, result.TotalUnits),
			After:       totals,
		}); logErr != nil {
			log.Printf("Audit log yazılamadı: %v", logErr)
		}

		return c.JSON(result)
	}
}

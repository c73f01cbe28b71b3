package bloodrequest

import (
	"fmt"
	"log"

	"bloodbank-backend/internal/audit"
	"bloodbank-backend/internal/auth"
	"bloodbank-backend/internal/database"
	"bloodbank-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SendBloodRequestRequest struct {
	BloodLabID uint   `json:"blood_lab_id"`
	BloodGroup string `json:"blood_group"`
	Units      int    `json:"units"`
}

type RejectBloodRequestRequest struct {
	Reason string `json:"reason"`
}

// Karşı tarafın herkese açık kimlik bilgileri
type FacilityInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type BloodRequestResponse struct {
	ID          uint          `json:"id"`
	RequestCode string        `json:"request_code"`
	BloodGroup  string        `json:"blood_group"`
	Units       int           `json:"units"`
	Status      string        `json:"status"`
	Reason      string        `json:"reason,omitempty"`
	CreatedAt   string        `json:"created_at"`
	Hospital    *FacilityInfo `json:"hospital,omitempty"`
	BloodLab    *FacilityInfo `json:"blood_lab,omitempty"`
}

func toResponse(r *models.BloodRequest, withHospital, withLab bool) BloodRequestResponse {
	resp := BloodRequestResponse{
		ID:          r.ID,
		RequestCode: r.RequestCode,
		BloodGroup:  r.BloodGroup,
		Units:       r.Units,
		Status:      string(r.Status),
		Reason:      r.Reason,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if withHospital {
		resp.Hospital = &FacilityInfo{
			ID:    r.Hospital.ID,
			Name:  r.Hospital.Name,
			Email: r.Hospital.Email,
			Phone: r.Hospital.Phone,
		}
	}
	if withLab {
		resp.BloodLab = &FacilityInfo{
			ID:    r.BloodLab.ID,
			Name:  r.BloodLab.Name,
			Email: r.BloodLab.Email,
			Phone: r.BloodLab.Phone,
		}
	}
	return resp
}

// POST /api/hospital/blood-requests
// Hastane bir laboratuvardan kan talep eder. Bu aşamada stoğa dokunulmaz,
// rezervasyon sadece kabul anında yapılır.
func SendBloodRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		hospitalID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		var body SendBloodRequestRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.BloodLabID == 0 || body.BloodGroup == "" || body.Units == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Laboratuvar, kan grubu ve ünite sayısı zorunlu")
		}

		if !models.IsValidBloodGroup(body.BloodGroup) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kan grubu")
		}

		if body.Units < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Ünite sayısı en az 1 olmalı")
		}

		// Hedef laboratuvar kontrolü
		var lab models.Facility
		if err := database.DB.First(&lab, "id = ? AND role = ?", body.BloodLabID, models.RoleBloodLab).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Laboratuvar bulunamadı")
		}

		request := models.BloodRequest{
			RequestCode: uuid.NewString(),
			HospitalID:  hospitalID,
			BloodLabID:  body.BloodLabID,
			BloodGroup:  body.BloodGroup,
			Units:       body.Units,
			Status:      models.RequestStatusPending,
		}

		if err := database.DB.Create(&request).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstek gönderilemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			FacilityID:  hospitalID,
			EntityType:  "blood_request",
			EntityID:    request.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Kan isteği oluşturuldu: %d ünite %s", request.Units, request.BloodGroup),
			After:       request,
		}); logErr != nil {
			log.Printf("Audit log yazılamadı: %v", logErr)
		}

		return c.JSON(fiber.Map{
			"message": "Kan isteği gönderildi",
			"request": toResponse(&request, false, false),
		})
	}
}

// GET /api/lab/blood-requests
// Laboratuvara gelen istekler, hastane kimliği ile birlikte, en yeniden eskiye
func LabRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		labID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		var requests []models.BloodRequest
		if err := database.DB.
			Preload("Hospital").
			Where("blood_lab_id = ?", labID).
			Order("created_at DESC").
			Find(&requests).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstekler yüklenemedi")
		}

		resp := make([]BloodRequestResponse, 0, len(requests))
		for i := range requests {
			resp = append(resp, toResponse(&requests[i], true, false))
		}

		return c.JSON(resp)
	}
}

// POST /api/lab/blood-requests/:id/accept
// Kabul = stok rezervasyonu. Stok düşümü ve durum geçişi tek transaction
// içinde yapılır; koşullu UPDATE sayesinde quantity hiçbir zaman negatife
// düşemez, iki eşzamanlı kabul aynı stoğu iki kez düşemez.
func AcceptBloodRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		labID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		requestID, err := c.ParamsInt("id")
		if err != nil || requestID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek id'si")
		}

		var request models.BloodRequest
		if err := database.DB.First(&request, "id = ?", requestID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İstek bulunamadı")
		}

		if request.BloodLabID != labID {
			return fiber.NewError(fiber.StatusForbidden, "Bu istek size ait değil")
		}

		if request.Status != models.RequestStatusPending {
			return fiber.NewError(fiber.StatusConflict, "İstek zaten sonuçlanmış")
		}

		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem başlatılamadı")
		}

		// Koşullu stok düşümü: quantity >= units şartı UPDATE'in kendisinde.
		// Kayıt yoksa veya stok yetersizse hiçbir satır etkilenmez.
		res := tx.Model(&models.BloodStock{}).
			Where("facility_id = ? AND blood_group = ? AND quantity >= ?",
				request.BloodLabID, request.BloodGroup, request.Units).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", request.Units))
		if res.Error != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Stok güncellenemedi")
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			return fiber.NewError(fiber.StatusBadRequest, "Yeterli stok yok")
		}

		// Durum geçişi de Pending şartıyla: araya giren bir kabul/red varsa
		// satır etkilenmez ve stok düşümü geri alınır.
		res = tx.Model(&models.BloodRequest{}).
			Where("id = ? AND status = ?", request.ID, models.RequestStatusPending).
			Update("status", models.RequestStatusAccepted)
		if res.Error != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "İstek güncellenemedi")
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			return fiber.NewError(fiber.StatusConflict, "İstek zaten sonuçlanmış")
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			FacilityID:  labID,
			EntityType:  "blood_request",
			EntityID:    request.ID,
			Action:      models.AuditActionAccept,
			Description: fmt.Sprintf("İstek kabul edildi, %d ünite %s stoktan düşüldü", request.Units, request.BloodGroup),
			Before:      fiber.Map{"status": models.RequestStatusPending},
			After:       fiber.Map{"status": models.RequestStatusAccepted},
		}); logErr != nil {
			log.Printf("Audit log yazılamadı: %v", logErr)
		}

		request.Status = models.RequestStatusAccepted

		return c.JSON(fiber.Map{
			"message": "İstek kabul edildi",
			"request": toResponse(&request, false, false),
		})
	}
}

// POST /api/lab/blood-requests/:id/reject
// Reddin stok ön şartı yok; sadece istek mevcut ve Pending olmalı
func RejectBloodRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		labID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		requestID, err := c.ParamsInt("id")
		if err != nil || requestID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek id'si")
		}

		var body RejectBloodRequestRequest
		if err := c.BodyParser(&body); err != nil && len(c.Body()) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		reason := body.Reason
		if reason == "" {
			reason = models.ReasonNotSpecified
		}

		var request models.BloodRequest
		if err := database.DB.First(&request, "id = ?", requestID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İstek bulunamadı")
		}

		if request.BloodLabID != labID {
			return fiber.NewError(fiber.StatusForbidden, "Bu istek size ait değil")
		}

		if request.Status != models.RequestStatusPending {
			return fiber.NewError(fiber.StatusConflict, "İstek zaten sonuçlanmış")
		}

		res := database.DB.Model(&models.BloodRequest{}).
			Where("id = ? AND status = ?", request.ID, models.RequestStatusPending).
			Updates(map[string]interface{}{
				"status": models.RequestStatusRejected,
				"reason": reason,
			})
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstek güncellenemedi")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "İstek zaten sonuçlanmış")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			FacilityID:  labID,
			EntityType:  "blood_request",
			EntityID:    request.ID,
			Action:      models.AuditActionReject,
			Description: fmt.Sprintf("İstek reddedildi: %s", reason),
			Before:      fiber.Map{"status": models.RequestStatusPending},
			After:       fiber.Map{"status": models.RequestStatusRejected, "reason": reason},
		}); logErr != nil {
			log.Printf("Audit log yazılamadı: %v", logErr)
		}

		request.Status = models.RequestStatusRejected
		request.Reason = reason

		return c.JSON(fiber.Map{
			"message": "İstek reddedildi",
			"request": toResponse(&request, false, false),
		})
	}
}

// GET /api/hospital/blood-requests
// Hastanenin istek geçmişi, laboratuvar kimliği ile birlikte
func HospitalRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		hospitalID, err := auth.FacilityID(c)
		if err != nil {
			return err
		}

		var requests []models.BloodRequest
		if err := database.DB.
			Preload("BloodLab").
			Where("hospital_id = ?", hospitalID).
			Order("created_at DESC").
			Find(&requests).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Geçmiş yüklenemedi")
		}

		resp := make([]BloodRequestResponse, 0, len(requests))
		for i := range requests {
			resp = append(resp, toResponse(&requests[i], false, true))
		}

		return c.JSON(resp)
	}
}

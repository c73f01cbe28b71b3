package bloodrequest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bloodbank-backend/internal/auth"
	"bloodbank-backend/internal/config"
	"bloodbank-backend/internal/database"
	"bloodbank-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const testSecret = "test-secret-test-secret-test-secret"

func setupApp(t *testing.T) (*fiber.App, *config.Config) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("sqlite açılamadı: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB alınamadı: %v", err)
	}
	// Tek bağlantı: in-memory veritabanı tek kalır, transaction'lar sıralanır
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migration hatası: %v", err)
	}
	database.DB = db

	cfg := &config.Config{JWTSecret: testSecret}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Beklenmeyen sunucu hatası"})
		},
	})

	api := app.Group("/api")
	protected := api.Group("", auth.JWTMiddleware(cfg))

	hospital := protected.Group("/hospital", auth.RequireRole(models.RoleHospital))
	hospital.Post("/blood-requests", SendBloodRequestHandler())
	hospital.Get("/blood-requests", HospitalRequestsHandler())

	lab := protected.Group("/lab", auth.RequireRole(models.RoleBloodLab))
	lab.Get("/blood-requests", LabRequestsHandler())
	lab.Post("/blood-requests/:id/accept", AcceptBloodRequestHandler())
	lab.Post("/blood-requests/:id/reject", RejectBloodRequestHandler())

	return app, cfg
}

func createFacility(t *testing.T, name string, role models.FacilityRole) models.Facility {
	t.Helper()
	f := models.Facility{
		Name:         name,
		Email:        fmt.Sprintf("%s@test.local", name),
		Phone:        "0212 000 00 00",
		PasswordHash: "x",
		Role:         role,
	}
	if err := database.DB.Create(&f).Error; err != nil {
		t.Fatalf("tesis oluşturulamadı: %v", err)
	}
	return f
}

func tokenFor(t *testing.T, f models.Facility) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, &f)
	if err != nil {
		t.Fatalf("token oluşturulamadı: %v", err)
	}
	return token
}

func jsonRequest(t *testing.T, method, url string, body any, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("body encode edilemedi: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("cevap decode edilemedi: %v", err)
	}
}

func seedStock(t *testing.T, labID uint, group string, quantity int) {
	t.Helper()
	s := models.BloodStock{FacilityID: labID, BloodGroup: group, Quantity: quantity}
	if err := database.DB.Create(&s).Error; err != nil {
		t.Fatalf("stok oluşturulamadı: %v", err)
	}
}

func stockQuantity(t *testing.T, labID uint, group string) int {
	t.Helper()
	var s models.BloodStock
	if err := database.DB.First(&s, "facility_id = ? AND blood_group = ?", labID, group).Error; err != nil {
		t.Fatalf("stok okunamadı: %v", err)
	}
	return s.Quantity
}

func TestSendBloodRequest(t *testing.T) {
	app, _ := setupApp(t)
	hospital := createFacility(t, "hospital1", models.RoleHospital)
	lab := createFacility(t, "lab1", models.RoleBloodLab)

	req := jsonRequest(t, "POST", "/api/hospital/blood-requests", SendBloodRequestRequest{
		BloodLabID: lab.ID,
		BloodGroup: "O-",
		Units:      2,
	}, tokenFor(t, hospital))

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("beklenen 200, gelen %d", resp.StatusCode)
	}

	var request models.BloodRequest
	if err := database.DB.First(&request, "hospital_id = ?", hospital.ID).Error; err != nil {
		t.Fatalf("istek kaydı bulunamadı: %v", err)
	}
	if request.Status != models.RequestStatusPending {
		t.Errorf("beklenen durum Pending, gelen %s", request.Status)
	}
	if request.Units != 2 || request.BloodGroup != "O-" {
		t.Errorf("istek alanları yanlış: %+v", request)
	}
	if request.RequestCode == "" {
		t.Error("request_code boş olmamalı")
	}
}

func TestSendBloodRequestValidation(t *testing.T) {
	app, _ := setupApp(t)
	hospital := createFacility(t, "hospital1", models.RoleHospital)
	lab := createFacility(t, "lab1", models.RoleBloodLab)
	token := tokenFor(t, hospital)

	cases := []struct {
		name string
		body SendBloodRequestRequest
	}{
		{"laboratuvar eksik", SendBloodRequestRequest{BloodGroup: "A+", Units: 1}},
		{"kan grubu eksik", SendBloodRequestRequest{BloodLabID: lab.ID, Units: 1}},
		{"ünite eksik", SendBloodRequestRequest{BloodLabID: lab.ID, BloodGroup: "A+"}},
		{"geçersiz kan grubu", SendBloodRequestRequest{BloodLabID: lab.ID, BloodGroup: "X+", Units: 1}},
		{"negatif ünite", SendBloodRequestRequest{BloodLabID: lab.ID, BloodGroup: "A+", Units: -3}},
		{"bilinmeyen laboratuvar", SendBloodRequestRequest{BloodLabID: 9999, BloodGroup: "A+", Units: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := jsonRequest(t, "POST", "/api/hospital/blood-requests", tc.body, token)
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("istek başarısız: %v", err)
			}
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Errorf("beklenen 400, gelen %d", resp.StatusCode)
			}
		})
	}

	var count int64
	database.DB.Model(&models.BloodRequest{}).Count(&count)
	if count != 0 {
		t.Errorf("geçersiz isteklerden kayıt oluşmamalı, %d kayıt var", count)
	}
}

func TestAcceptBloodRequest(t *testing.T) {
	app, _ := setupApp(t)
	hospital := createFacility(t, "hospital1", models.RoleHospital)
	lab := createFacility(t, "lab1", models.RoleBloodLab)
	seedStock(t, lab.ID, "O-", 5)

	request := models.BloodRequest{
		RequestCode: "test-code-1",
		HospitalID:  hospital.ID,
		BloodLabID:  lab.ID,
		BloodGroup:  "O-",
		Units:       2,
		Status:      models.RequestStatusPending,
	}
	if err := database.DB.Create(&request).Error; err != nil {
		t.Fatalf("istek oluşturulamadı: %v", err)
	}

	req := jsonRequest(t, "POST", fmt.Sprintf("/api/lab/blood-requests/%d/accept", request.ID), nil, tokenFor(t, lab))
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("beklenen 200, gelen %d", resp.StatusCode)
	}

	if got := stockQuantity(t, lab.ID, "O-"); got != 3 {
		t.Errorf("beklenen stok 3, gelen %d", got)
	}

	var updated models.BloodRequest
	database.DB.First(&updated, request.ID)
	if updated.Status != models.RequestStatusAccepted {
		t.Errorf("beklenen durum Accepted, gelen %s", updated.Status)
	}
}

func TestAcceptInsufficientStock(t *testing.T) {
	app, _ := setupApp(t)
	hospital := createFacility(t, "hospital1", models.RoleHospital)
	lab := createFacility(t, "lab1", models.RoleBloodLab)
	seedStock(t, lab.ID, "A+", 1)

	// Stok yetersiz
	request := models.BloodRequest{
		RequestCode: "test-code-1",
		HospitalID:  hospital.ID,
		BloodLabID:  lab.ID,
		BloodGroup:  "A+",
		Units:       2,
		Status:      models.RequestStatusPending,
	}
	database.DB.Create(&request)

	req := jsonRequest(t, "POST", fmt.Sprintf("/api/lab/blood-requests/%d/accept", request.ID), nil, tokenFor(t, lab))
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("beklenen 400, gelen %d", resp.StatusCode)
	}

	// Ne stok ne istek değişmiş olmalı
	if got := stockQuantity(t, lab.ID, "A+"); got != 1 {
		t.Errorf("stok değişmemeliydi, gelen %d", got)
	}
	var unchanged models.BloodRequest
	database.DB.First(&unchanged, request.ID)
	if unchanged.Status != models.RequestStatusPending {
		t.Errorf("durum Pending kalmalıydı, gelen %s", unchanged.Status)
	}

	// Stok kaydı hiç olmayan grup da aynı şekilde reddedilir
	request2 := models.BloodRequest{
		RequestCode: "test-code-2",
		HospitalID:  hospital.ID,
		BloodLabID:  lab.ID,
		BloodGroup:  "AB-",
		Units:       1,
		Status:      models.RequestStatusPending,
	}
	database.DB.Create(&request2)

	req = jsonRequest(t, "POST", fmt.Sprintf("/api/lab/blood-requests/%d/accept", request2.ID), nil, tokenFor(t, lab))
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("beklenen 400, gelen %d", resp.StatusCode)
	}
}

func TestAcceptNotFoundAndOwnership(t *testing.T) {
	app, _ := setupApp(t)
	hospital := createFacility(t, "hospital1", models.RoleHospital)
	lab := createFacility(t, "lab1", models.RoleBloodLab)
	otherLab := createFacility(t, "lab2", models.RoleBloodLab)
	seedStock(t, lab.ID, "B+", 5)

	req := jsonRequest(t, "POST", "/api/lab/blood-requests/9999/accept", nil, tokenFor(t, lab))
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("beklenen 404, gelen %d", resp.StatusCode)
	}

	request := models.BloodRequest{
		RequestCode: "test-code-1",
		HospitalID:  hospital.ID,
		BloodLabID:  lab.ID,
		BloodGroup:  "B+",
		Units:       1,
		Status:      models.RequestStatusPending,
	}
	database.DB.Create(&request)

	// Başka laboratuvar kabul edemez
	req = jsonRequest(t, "POST", fmt.Sprintf("/api/lab/blood-requests/%d/accept", request.ID), nil, tokenFor(t, otherLab))
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("beklenen 403, gelen %d", resp.StatusCode)
	}
	if got := stockQuantity(t, lab.ID, "B+"); got != 5 {
		t.Errorf("stok değişmemeliydi, gelen %d", got)
	}
}

func TestAcceptTerminalRequest(t *testing.T) {
	app, _ := setupApp(t)
	hospital := createFacility(t, "hospital1", models.RoleHospital)
	lab := createFacility(t, "lab1", models.RoleBloodLab)
	seedStock(t, lab.ID, "O+", 10)
	token := tokenFor(t, lab)

	request := models.BloodRequest{
		RequestCode: "test-code-1",
		HospitalID:  hospital.ID,
		BloodLabID:  lab.ID,
		BloodGroup:  "O+",
		Units:       3,
		Status:      models.RequestStatusPending,
	}
	database.DB.Create(&request)

	url := fmt.Sprintf("/api/lab/blood-requests/%d/accept", request.ID)

	resp, err := app.Test(jsonRequest(t, "POST", url, nil, token), -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("ilk kabul 200 olmalı, gelen %d", resp.StatusCode)
	}

	// İkinci kabul: stok tekrar düşmemeli
	resp, err = app.Test(jsonRequest(t, "POST", url, nil, token), -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("beklenen 409, gelen %d", resp.StatusCode)
	}
	if got := stockQuantity(t, lab.ID, "O+"); got != 7 {
		t.Errorf("stok bir kez düşmeliydi, beklenen 7, gelen %d", got)
	}

	// Kabul edilmiş istek reddedilemiyor
	resp, err = app.Test(jsonRequest(t, "POST", fmt.Sprintf("/api/lab/blood-requests/%d/reject", request.ID), nil, token), -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("beklenen 409, gelen %d", resp.StatusCode)
	}
}

func TestRejectBloodRequest(t *testing.T) {
	app, _ := setupApp(t)
	hospital := createFacility(t, "hospital1", models.RoleHospital)
	lab := createFacility(t, "lab1", models.RoleBloodLab)
	seedStock(t, lab.ID, "A-", 4)
	token := tokenFor(t, lab)

	request := models.BloodRequest{
		RequestCode: "test-code-1",
		HospitalID:  hospital.ID,
		BloodLabID:  lab.ID,
		BloodGroup:  "A-",
		Units:       2,
		Status:      models.RequestStatusPending,
	}
	database.DB.Create(&request)

	req := jsonRequest(t, "POST", fmt.Sprintf("/api/lab/blood-requests/%d/reject", request.ID),
		RejectBloodRequestRequest{Reason: "Acil rezerv"}, token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("beklenen 200, gelen %d", resp.StatusCode)
	}

	var updated models.BloodRequest
	database.DB.First(&updated, request.ID)
	if updated.Status != models.RequestStatusRejected {
		t.Errorf("beklenen durum Rejected, gelen %s", updated.Status)
	}
	if updated.Reason != "Acil rezerv" {
		t.Errorf("beklenen sebep 'Acil rezerv', gelen %q", updated.Reason)
	}

	// Red stoğa dokunmaz
	if got := stockQuantity(t, lab.ID, "A-"); got != 4 {
		t.Errorf("stok değişmemeliydi, gelen %d", got)
	}
}

func TestRejectDefaultReason(t *testing.T) {
	app, _ := setupApp(t)
	hospital := createFacility(t, "hospital1", models.RoleHospital)
	lab := createFacility(t, "lab1", models.RoleBloodLab)

	request := models.BloodRequest{
		RequestCode: "test-code-1",
		HospitalID:  hospital.ID,
		BloodLabID:  lab.ID,
		BloodGroup:  "B-",
		Units:       1,
		Status:      models.RequestStatusPending,
	}
	database.DB.Create(&request)

	// Sebep gönderilmezse sentinel değer yazılır
	req := jsonRequest(t, "POST", fmt.Sprintf("/api/lab/blood-requests/%d/reject", request.ID), nil, tokenFor(t, lab))
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("beklenen 200, gelen %d", resp.StatusCode)
	}

	var updated models.BloodRequest
	database.DB.First(&updated, request.ID)
	if updated.Reason != models.ReasonNotSpecified {
		t.Errorf("beklenen sebep %q, gelen %q", models.ReasonNotSpecified, updated.Reason)
	}
}

func TestListOwnershipAndOrdering(t *testing.T) {
	app, _ := setupApp(t)
	hospital1 := createFacility(t, "hospital1", models.RoleHospital)
	hospital2 := createFacility(t, "hospital2", models.RoleHospital)
	lab := createFacility(t, "lab1", models.RoleBloodLab)

	base := time.Now().Add(-1 * time.Hour)
	for i := 0; i < 3; i++ {
		r := models.BloodRequest{
			RequestCode: fmt.Sprintf("h1-code-%d", i),
			HospitalID:  hospital1.ID,
			BloodLabID:  lab.ID,
			BloodGroup:  "O+",
			Units:       i + 1,
			Status:      models.RequestStatusPending,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		database.DB.Create(&r)
	}
	other := models.BloodRequest{
		RequestCode: "h2-code",
		HospitalID:  hospital2.ID,
		BloodLabID:  lab.ID,
		BloodGroup:  "A+",
		Units:       1,
		Status:      models.RequestStatusPending,
		CreatedAt:   base.Add(30 * time.Minute),
	}
	database.DB.Create(&other)

	resp, err := app.Test(jsonRequest(t, "GET", "/api/hospital/blood-requests", nil, tokenFor(t, hospital1)), -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("beklenen 200, gelen %d", resp.StatusCode)
	}

	var list []BloodRequestResponse
	decodeBody(t, resp, &list)

	if len(list) != 3 {
		t.Fatalf("hospital1 sadece kendi 3 isteğini görmeli, gelen %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].CreatedAt < list[i].CreatedAt {
			t.Errorf("liste en yeniden eskiye sıralı olmalı: %s sonra %s", list[i-1].CreatedAt, list[i].CreatedAt)
		}
	}
	for _, r := range list {
		if r.BloodLab == nil || r.BloodLab.Name != "lab1" {
			t.Errorf("karşı taraf kimliği eksik: %+v", r)
		}
	}

	// Laboratuvar tarafında da sadece kendi istekleri görünür, hastane kimliği ile
	resp, err = app.Test(jsonRequest(t, "GET", "/api/lab/blood-requests", nil, tokenFor(t, lab)), -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	var labList []BloodRequestResponse
	decodeBody(t, resp, &labList)
	if len(labList) != 4 {
		t.Fatalf("laboratuvar 4 istek görmeli, gelen %d", len(labList))
	}
	for _, r := range labList {
		if r.Hospital == nil || r.Hospital.Name == "" {
			t.Errorf("hastane kimliği eksik: %+v", r)
		}
	}
}

// Eşzamanlılık: Q üniteli stoğa, her biri U ünitelik N kabul denemesi
// geldiğinde tam floor(Q/U) tanesi başarılı olur ve stok asla negatife düşmez
func TestConcurrentAccepts(t *testing.T) {
	app, _ := setupApp(t)
	hospital := createFacility(t, "hospital1", models.RoleHospital)
	lab := createFacility(t, "lab1", models.RoleBloodLab)

	const quantity = 10
	const units = 2
	const attempts = 8

	seedStock(t, lab.ID, "O-", quantity)
	token := tokenFor(t, lab)

	ids := make([]uint, 0, attempts)
	for i := 0; i < attempts; i++ {
		r := models.BloodRequest{
			RequestCode: fmt.Sprintf("conc-code-%d", i),
			HospitalID:  hospital.ID,
			BloodLabID:  lab.ID,
			BloodGroup:  "O-",
			Units:       units,
			Status:      models.RequestStatusPending,
		}
		if err := database.DB.Create(&r).Error; err != nil {
			t.Fatalf("istek oluşturulamadı: %v", err)
		}
		ids = append(ids, r.ID)
	}

	var wg sync.WaitGroup
	results := make([]int, attempts)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			req := httptest.NewRequest("POST", fmt.Sprintf("/api/lab/blood-requests/%d/accept", id), nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := app.Test(req, -1)
			if err != nil {
				results[i] = -1
				return
			}
			resp.Body.Close()
			results[i] = resp.StatusCode
		}(i, id)
	}
	wg.Wait()

	accepted := 0
	for i, code := range results {
		switch code {
		case fiber.StatusOK:
			accepted++
		case fiber.StatusBadRequest:
			// Stok bitti, beklenen sonuç
		default:
			t.Errorf("deneme %d beklenmeyen sonuç: %d", i, code)
		}
	}

	if want := quantity / units; accepted != want {
		t.Errorf("beklenen kabul sayısı %d, gelen %d", want, accepted)
	}

	finalQty := stockQuantity(t, lab.ID, "O-")
	if finalQty < 0 {
		t.Errorf("stok negatife düştü: %d", finalQty)
	}
	if want := quantity - (quantity/units)*units; finalQty != want {
		t.Errorf("beklenen kalan stok %d, gelen %d", want, finalQty)
	}

	var acceptedCount int64
	database.DB.Model(&models.BloodRequest{}).
		Where("blood_lab_id = ? AND status = ?", lab.ID, models.RequestStatusAccepted).
		Count(&acceptedCount)
	if acceptedCount != int64(accepted) {
		t.Errorf("kabul edilen istek sayısı stok düşümüyle uyuşmuyor: %d != %d", acceptedCount, accepted)
	}
}

package main

import (
	"log"
	"strings"

	"bloodbank-backend/internal/audit"
	"bloodbank-backend/internal/auth"
	"bloodbank-backend/internal/bloodrequest"
	"bloodbank-backend/internal/camp"
	"bloodbank-backend/internal/config"
	"bloodbank-backend/internal/dashboard"
	"bloodbank-backend/internal/database"
	"bloodbank-backend/internal/donor"
	"bloodbank-backend/internal/facility"
	"bloodbank-backend/internal/models"
	"bloodbank-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterFacilityHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Tesis dizini
	protected.Get("/facilities/labs", facility.ListLabsHandler())

	// Hastane route'ları
	hospital := protected.Group("/hospital")
	hospital.Use(auth.RequireRole(models.RoleHospital))

	hospital.Post("/blood-requests", bloodrequest.SendBloodRequestHandler())
	hospital.Get("/blood-requests", bloodrequest.HospitalRequestsHandler())

	// Laboratuvar route'ları
	lab := protected.Group("/lab")
	lab.Use(auth.RequireRole(models.RoleBloodLab))

	lab.Get("/dashboard", dashboard.LabDashboardHandler())

	// Gelen istekler
	lab.Get("/blood-requests", bloodrequest.LabRequestsHandler())
	lab.Post("/blood-requests/:id/accept", bloodrequest.AcceptBloodRequestHandler())
	lab.Post("/blood-requests/:id/reject", bloodrequest.RejectBloodRequestHandler())

	// Stok yönetimi
	lab.Post("/blood/add", stock.AddBloodStockHandler())
	lab.Post("/blood/remove", stock.RemoveBloodStockHandler())
	lab.Get("/blood/stock", stock.GetBloodStockHandler())
	lab.Post("/blood/import", stock.ImportBloodStockHandler())

	// Bağışçılar ve bağışlar
	lab.Post("/donors", donor.CreateDonorHandler())
	lab.Get("/donors", donor.ListDonorsHandler())
	lab.Post("/donations", donor.RecordDonationHandler())
	lab.Get("/donations", donor.ListDonationsHandler())

	// Kamplar
	lab.Post("/camps", camp.CreateCampHandler())
	lab.Get("/camps", camp.ListCampsHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

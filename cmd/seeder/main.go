package main

import (
	"log"

	"bloodbank-backend/internal/config"
	"bloodbank-backend/internal/database"
	"bloodbank-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// Demo verisi: iki laboratuvar, iki hastane ve başlangıç stoğu.
// Local development için; mevcut kayıt varsa atlar.
func main() {
	cfg := config.Load()
	database.Init(cfg)

	var count int64
	database.DB.Model(&models.Facility{}).Count(&count)
	if count > 0 {
		log.Printf("Veritabanında %d tesis var, seed atlanıyor.", count)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Şifre hashlenemedi: %v", err)
	}

	facilities := []models.Facility{
		{Name: "Merkez Kan Laboratuvarı", Email: "lab1@bloodbank.local", Phone: "0212 000 00 01", Role: models.RoleBloodLab, PasswordHash: string(hash)},
		{Name: "Doğu Kan Laboratuvarı", Email: "lab2@bloodbank.local", Phone: "0212 000 00 02", Role: models.RoleBloodLab, PasswordHash: string(hash)},
		{Name: "Şehir Hastanesi", Email: "hospital1@bloodbank.local", Phone: "0212 000 00 03", Role: models.RoleHospital, PasswordHash: string(hash)},
		{Name: "Üniversite Hastanesi", Email: "hospital2@bloodbank.local", Phone: "0212 000 00 04", Role: models.RoleHospital, PasswordHash: string(hash)},
	}

	for i := range facilities {
		if err := database.DB.Create(&facilities[i]).Error; err != nil {
			log.Fatalf("Tesis oluşturulamadı: %v", err)
		}
	}

	// Laboratuvarlara başlangıç stoğu
	for _, f := range facilities {
		if f.Role != models.RoleBloodLab {
			continue
		}
		for _, g := range models.BloodGroups {
			stock := models.BloodStock{FacilityID: f.ID, BloodGroup: g, Quantity: 10}
			if err := database.DB.Create(&stock).Error; err != nil {
				log.Fatalf("Stok oluşturulamadı: %v", err)
			}
		}
	}

	log.Printf("%d tesis ve başlangıç stoğu oluşturuldu. Tüm hesapların şifresi: demo1234", len(facilities))
}

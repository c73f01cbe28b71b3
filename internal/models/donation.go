package models

import "time"

// Donation: Bir bağışçının laboratuvara verdiği kan. Kayıt oluşurken
// laboratuvarın ilgili kan grubu stoğu aynı transaction içinde artırılır.
type Donation struct {
	ID         uint `gorm:"primaryKey"`
	FacilityID uint `gorm:"index;not null"` // Stoğu artan laboratuvar
	Facility   Facility
	DonorID    uint `gorm:"index;not null"`
	Donor      Donor
	CampID     *uint // Kampta yapıldıysa kamp referansı
	Camp       *BloodCamp
	BloodGroup string `gorm:"size:5;not null"`
	Units      int    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

package models

import "time"

// BloodCamp: Laboratuvarın düzenlediği bağış kampı. Kamp üzerinden gelen
// bağışlar stoğa Donation kaydı ile işlenir.
type BloodCamp struct {
	ID         uint `gorm:"primaryKey"`
	FacilityID uint `gorm:"index;not null"` // Düzenleyen laboratuvar
	Facility   Facility
	Name       string    `gorm:"size:100;not null"`
	Place      string    `gorm:"size:255"`
	Date       time.Time `gorm:"index;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

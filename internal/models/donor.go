package models

import "time"

// Donor: Bir laboratuvara kayıtlı bağışçı
type Donor struct {
	ID         uint `gorm:"primaryKey"`
	FacilityID uint `gorm:"index;not null"` // Kayıtlı olduğu laboratuvar
	Facility   Facility
	Name       string `gorm:"size:100;not null"`
	Email      string `gorm:"size:100"`
	Phone      string `gorm:"size:50"`
	BloodGroup string `gorm:"size:5;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

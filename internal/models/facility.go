package models

import "time"

type FacilityRole string

const (
	RoleHospital FacilityRole = "hospital"
	RoleBloodLab FacilityRole = "blood_lab"
)

// Facility: Hastane veya kan laboratuvarı. İki rol de aynı tabloda tutulur,
// rol alanı ile ayrılır.
type Facility struct {
	ID           uint         `gorm:"primaryKey"`
	Name         string       `gorm:"size:100;not null"`
	Email        string       `gorm:"size:100;uniqueIndex;not null"`
	Phone        string       `gorm:"size:50"`
	Address      string       `gorm:"size:255"`
	PasswordHash string       `gorm:"size:255;not null"`
	Role         FacilityRole `gorm:"size:20;not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

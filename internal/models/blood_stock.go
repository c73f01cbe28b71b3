package models

import "time"

// Geçerli 8 ABO/Rh kan grubu kodu
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func IsValidBloodGroup(group string) bool {
	for _, g := range BloodGroups {
		if g == group {
			return true
		}
	}
	return false
}

// BloodStock: Bir laboratuvarın bir kan grubundaki mevcut ünite sayısı.
// (facility_id, blood_group) çifti başına en fazla bir kayıt olur ve
// quantity hiçbir zaman negatife düşmez; kayıt silinmez, sıfıra inebilir.
type BloodStock struct {
	ID         uint   `gorm:"primaryKey"`
	FacilityID uint   `gorm:"not null;uniqueIndex:idx_stock_facility_group"`
	Facility   Facility
	BloodGroup string `gorm:"size:5;not null;uniqueIndex:idx_stock_facility_group"`
	Quantity   int    `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

package models

import "time"

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "Pending"
	RequestStatusAccepted  RequestStatus = "Accepted"
	RequestStatusRejected  RequestStatus = "Rejected"
	RequestStatusCompleted RequestStatus = "Completed"
)

// Reddedilen isteklerde sebep belirtilmemişse bu değer yazılır
const ReasonNotSpecified = "Not specified"

// BloodRequest: Bir hastanenin bir laboratuvardan kan talebi.
// Durum geçişleri tek yönlüdür: Pending -> Accepted | Rejected (-> Completed).
// Terminal duruma gelmiş bir istek bir daha değiştirilemez.
type BloodRequest struct {
	ID          uint   `gorm:"primaryKey"`
	RequestCode string `gorm:"size:36;uniqueIndex;not null"` // Dış referans için UUID
	HospitalID  uint   `gorm:"index;not null"`
	Hospital    Facility
	BloodLabID  uint `gorm:"index;not null"`
	BloodLab    Facility
	BloodGroup  string        `gorm:"size:5;not null"`
	Units       int           `gorm:"not null"` // En az 1
	Status      RequestStatus `gorm:"size:20;not null;default:'Pending';index"`
	Reason      string        `gorm:"size:255"` // Sadece red durumunda dolu
	CreatedAt   time.Time     `gorm:"index"`
	UpdatedAt   time.Time
}

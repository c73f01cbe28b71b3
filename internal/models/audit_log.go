package models

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionAccept AuditAction = "accept"
	AuditActionReject AuditAction = "reject"
	AuditActionAdd    AuditAction = "add"
	AuditActionRemove AuditAction = "remove"
)

// AuditLog: Stok hareketleri ve istek durum geçişleri için iz kaydı
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// İşlemi yapan tesis
	FacilityID uint `gorm:"index" json:"facility_id"`

	// Hangi entity? (ör: "blood_request", "blood_stock", "donation")
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`

	Action AuditAction `gorm:"size:20" json:"action"`

	// Küçük bir özet
	Description string `gorm:"size:255" json:"description"`

	// Önceki ve sonraki hal (JSON)
	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`
}

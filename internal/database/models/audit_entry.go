package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditType string

const (
	AuditCreated AuditType = "created"
	AuditAdded   AuditType = "added"
	AuditRemoved AuditType = "removed"
	AuditDeleted AuditType = "deleted"
)

// AuditEntry is an append-only record of one inventory change.
//
// QuantityDelta holds the magnitude of the change; Type carries the direction.
// It is nil for deletions. ItemName and ActorName are snapshots taken when the
// entry is written so history stays readable after the item or user is gone.
type AuditEntry struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Type          AuditType  `gorm:"not null;index" json:"type"`
	QuantityDelta *int       `json:"quantity_delta"`
	PriorQuantity int        `gorm:"not null" json:"prior_quantity"`
	ItemName      string     `gorm:"not null" json:"item_name"`
	ActorName     string     `gorm:"not null" json:"actor_name"`
	TenantID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_activities_tenant_created,priority:1" json:"tenant_id"`
	ItemID        *uuid.UUID `gorm:"type:uuid;index" json:"item_id"`
	CreatedAt     time.Time  `gorm:"index:idx_activities_tenant_created,priority:2" json:"created_at"`
}

func (AuditEntry) TableName() string {
	return "activities"
}

func (e *AuditEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *AuditEntry) OwnerTenant() uuid.UUID { return e.TenantID }
func (e *AuditEntry) AssignTenant(tenantID uuid.UUID) { e.TenantID = tenantID }

// SignedDelta returns the change in stock this entry represents.
func (e *AuditEntry) SignedDelta() int {
	if e.QuantityDelta == nil {
		return 0
	}
	switch e.Type {
	case AuditRemoved:
		return -*e.QuantityDelta
	case AuditCreated, AuditAdded:
		return *e.QuantityDelta
	}
	return 0
}

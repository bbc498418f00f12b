package models

import "github.com/google/uuid"

// Item is a countable inventory item. Only Quantity changes after creation.
type Item struct {
	Base
	Name     string    `gorm:"not null" json:"name"`
	Quantity int       `gorm:"not null" json:"quantity"`
	Barcode  string    `gorm:"not null;size:128;uniqueIndex:idx_items_tenant_barcode,priority:2" json:"barcode"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_items_tenant_barcode,priority:1" json:"tenant_id"`
}

func (Item) TableName() string {
	return "items"
}

func (i *Item) OwnerTenant() uuid.UUID { return i.TenantID }
func (i *Item) AssignTenant(tenantID uuid.UUID) { i.TenantID = tenantID }

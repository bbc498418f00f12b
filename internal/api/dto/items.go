package dto

import (
	"time"

	"github.com/hugh/stockroom/internal/database/models"
)

type CreateItemRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Barcode  string `json:"barcode" validate:"required,max=128"`
	Quantity *int   `json:"quantity" validate:"omitempty,min=0"`
}

// UpdateItemRequest sets the quantity of an item to an absolute value.
type UpdateItemRequest struct {
	ID       string `json:"id" validate:"required,uuid"`
	Quantity *int   `json:"quantity" validate:"required,min=0"`
}

// AdjustItemRequest applies a signed change to an item's quantity.
type AdjustItemRequest struct {
	ID    string `json:"id" validate:"required,uuid"`
	Delta *int   `json:"delta" validate:"required,min=-1000000000,max=1000000000"`
}

type DeleteRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

type ItemDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Barcode   string    `json:"barcode"`
	Quantity  int       `json:"quantity"`
	CompanyID string    `json:"companyId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ActivityDTO struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	QuantityDelta *int      `json:"quantityDelta"`
	PriorQuantity int       `json:"priorQuantity"`
	ItemName      string    `json:"itemName"`
	ActorName     string    `json:"actorName"`
	ItemID        *string   `json:"itemId"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewItemDTO(i *models.Item) ItemDTO {
	return ItemDTO{
		ID:        i.ID.String(),
		Name:      i.Name,
		Barcode:   i.Barcode,
		Quantity:  i.Quantity,
		CompanyID: i.TenantID.String(),
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func NewItemDTOs(items []models.Item) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for i := range items {
		out = append(out, NewItemDTO(&items[i]))
	}
	return out
}

func NewActivityDTO(e *models.AuditEntry) ActivityDTO {
	dto := ActivityDTO{
		ID:            e.ID.String(),
		Type:          string(e.Type),
		QuantityDelta: e.QuantityDelta,
		PriorQuantity: e.PriorQuantity,
		ItemName:      e.ItemName,
		ActorName:     e.ActorName,
		CreatedAt:     e.CreatedAt,
	}
	if e.ItemID != nil {
		id := e.ItemID.String()
		dto.ItemID = &id
	}
	return dto
}

func NewActivityDTOs(entries []models.AuditEntry) []ActivityDTO {
	out := make([]ActivityDTO, 0, len(entries))
	for i := range entries {
		out = append(out, NewActivityDTO(&entries[i]))
	}
	return out
}

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/stockroom/internal/api/dto"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/ledger"
)

type ItemHandler struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

func NewItemHandler(l *ledger.Ledger, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{ledger: l, logger: logger}
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	items, err := withStorageRetry(r.Context(), h.logger, func() ([]models.Item, error) {
		return h.ledger.ListItems(r.Context(), scope)
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewItemDTOs(items))
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req dto.CreateItemRequest
	if !decode(w, r, &req) {
		return
	}
	quantity := 0
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, err := withStorageRetry(r.Context(), h.logger, func() (*models.Item, error) {
		return h.ledger.CreateItem(r.Context(), scope, ledger.CreateItemInput{
			Name:     req.Name,
			Barcode:  req.Barcode,
			Quantity: quantity,
		})
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.NewItemDTO(item))
}

// Update sets an item's quantity to the requested absolute value.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req dto.UpdateItemRequest
	if !decode(w, r, &req) {
		return
	}
	id, ok := parseID(w, req.ID, "item")
	if !ok {
		return
	}

	item, err := withStorageRetry(r.Context(), h.logger, func() (*models.Item, error) {
		return h.ledger.SetQuantity(r.Context(), scope, id, *req.Quantity)
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewItemDTO(item))
}

// Adjust applies a signed change to an item's quantity.
func (h *ItemHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req dto.AdjustItemRequest
	if !decode(w, r, &req) {
		return
	}
	id, ok := parseID(w, req.ID, "item")
	if !ok {
		return
	}

	item, err := withStorageRetry(r.Context(), h.logger, func() (*models.Item, error) {
		return h.ledger.AdjustQuantity(r.Context(), scope, id, *req.Delta)
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewItemDTO(item))
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req dto.DeleteRequest
	if !decode(w, r, &req) {
		return
	}
	id, ok := parseID(w, req.ID, "item")
	if !ok {
		return
	}

	_, err := withStorageRetry(r.Context(), h.logger, func() (struct{}, error) {
		return struct{}{}, h.ledger.DeleteItem(r.Context(), scope, id)
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Item deleted"})
}

// Search looks an item up by exact barcode.
func (h *ItemHandler) Search(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	barcode := strings.TrimSpace(r.URL.Query().Get("barcode"))
	if barcode == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"barcode": "is required"},
		})
		return
	}

	item, err := withStorageRetry(r.Context(), h.logger, func() (*models.Item, error) {
		return h.ledger.FindByBarcode(r.Context(), scope, barcode)
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewItemDTO(item))
}

// History lists the entries still linked to one item, oldest first.
func (h *ItemHandler) History(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	id, ok := parseID(w, chi.URLParam(r, "id"), "item")
	if !ok {
		return
	}

	if _, err := h.ledger.GetItem(r.Context(), scope, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entries, err := withStorageRetry(r.Context(), h.logger, func() ([]models.AuditEntry, error) {
		return h.ledger.History(r.Context(), scope, id)
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewActivityDTOs(entries))
}

type ActivityHandler struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

func NewActivityHandler(l *ledger.Ledger, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{ledger: l, logger: logger}
}

// List returns the latest audit entries of the caller's tenant.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	entries, err := withStorageRetry(r.Context(), h.logger, func() ([]models.AuditEntry, error) {
		return h.ledger.RecentActivity(r.Context(), scope)
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewActivityDTOs(entries))
}

// Package ledger applies inventory quantity changes. Every change and its
// audit entry are written in the same transaction.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/metrics"
	"github.com/hugh/stockroom/internal/tenancy"
	"gorm.io/gorm"
)

// ActivityLimit caps the activity feed.
const ActivityLimit = 100

var (
	ErrDuplicateBarcode = errors.New("barcode already exists")
	ErrInvalidQuantity  = errors.New("quantity must not be negative")
	ErrInvalidItem      = errors.New("item name and barcode are required")
)

type Options struct {
	// RecordZeroDelta writes an entry with delta 0 when an adjustment
	// does not change the stored quantity. When false such calls are
	// no-ops.
	RecordZeroDelta bool
}

type itemRepo = tenancy.Repository[models.Item, *models.Item]
type entryRepo = tenancy.Repository[models.AuditEntry, *models.AuditEntry]

type Ledger struct {
	db      *gorm.DB
	items   *itemRepo
	entries *entryRepo
	opts    Options
	logger  *slog.Logger
}

func New(db *gorm.DB, opts Options, logger *slog.Logger) *Ledger {
	return &Ledger{
		db:      db,
		items:   tenancy.NewRepository[models.Item](db),
		entries: tenancy.NewRepository[models.AuditEntry](db),
		opts:    opts,
		logger:  logger,
	}
}

type CreateItemInput struct {
	Name     string
	Barcode  string
	Quantity int
}

// CreateItem inserts the item and its "created" entry.
func (l *Ledger) CreateItem(ctx context.Context, scope tenancy.Scope, input CreateItemInput) (*models.Item, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	barcode := strings.TrimSpace(input.Barcode)
	if name == "" || barcode == "" {
		return nil, ErrInvalidItem
	}
	if input.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	var (
		item  *models.Item
		entry *models.AuditEntry
	)
	err := l.inTx(ctx, "create item", func(items *itemRepo, entries *entryRepo) error {
		if _, err := items.First(ctx, scope.TenantID, map[string]any{"barcode": barcode}); err == nil {
			return ErrDuplicateBarcode
		} else if !errors.Is(err, tenancy.ErrNotFound) {
			return err
		}

		var err error
		item, err = items.Insert(ctx, scope.TenantID, &models.Item{
			Name:     name,
			Barcode:  barcode,
			Quantity: input.Quantity,
		})
		if err != nil {
			if errors.Is(err, tenancy.ErrDuplicateKey) {
				return ErrDuplicateBarcode
			}
			return err
		}

		entry = newEntry(scope, item, models.AuditCreated, intPtr(input.Quantity), 0)
		_, err = entries.Insert(ctx, scope.TenantID, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.committed(scope, entry)
	return item, nil
}

// AdjustQuantity adds delta to the stored quantity, clamping at zero. The
// entry records the change actually applied. A sum beyond math.MaxInt
// yields ErrInvalidQuantity.
func (l *Ledger) AdjustQuantity(ctx context.Context, scope tenancy.Scope, itemID uuid.UUID, delta int) (*models.Item, error) {
	return l.change(ctx, scope, itemID, "adjust quantity", func(current int) (int, error) {
		if delta > 0 && current > math.MaxInt-delta {
			return 0, ErrInvalidQuantity
		}
		return current + delta, nil
	})
}

// SetQuantity moves the stored quantity to target.
func (l *Ledger) SetQuantity(ctx context.Context, scope tenancy.Scope, itemID uuid.UUID, target int) (*models.Item, error) {
	if target < 0 {
		return nil, ErrInvalidQuantity
	}
	return l.change(ctx, scope, itemID, "set quantity", func(int) (int, error) {
		return target, nil
	})
}

func (l *Ledger) change(ctx context.Context, scope tenancy.Scope, itemID uuid.UUID, op string, next func(current int) (int, error)) (*models.Item, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	var (
		item  *models.Item
		entry *models.AuditEntry
	)
	err := l.inTx(ctx, op, func(items *itemRepo, entries *entryRepo) error {
		current, err := items.GetForUpdate(ctx, scope.TenantID, itemID)
		if err != nil {
			return err
		}

		prior := current.Quantity
		requested, err := next(prior)
		if err != nil {
			return err
		}
		updated := max(0, requested)
		effective := updated - prior

		item = current
		if effective == 0 && !l.opts.RecordZeroDelta {
			return nil
		}
		if effective != 0 {
			item, err = items.Update(ctx, scope.TenantID, itemID, tenancy.Patch{"quantity": updated})
			if err != nil {
				return err
			}
		}

		entry = newEntry(scope, item, entryType(effective, requested-prior), intPtr(abs(effective)), prior)
		_, err = entries.Insert(ctx, scope.TenantID, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		l.committed(scope, entry)
	}
	return item, nil
}

// DeleteItem records a "deleted" entry and removes the item. Earlier
// entries for the item keep their snapshots but lose the item reference.
func (l *Ledger) DeleteItem(ctx context.Context, scope tenancy.Scope, itemID uuid.UUID) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	var entry *models.AuditEntry
	err := l.inTx(ctx, "delete item", func(items *itemRepo, entries *entryRepo) error {
		item, err := items.GetForUpdate(ctx, scope.TenantID, itemID)
		if err != nil {
			return err
		}

		entry = newEntry(scope, item, models.AuditDeleted, nil, item.Quantity)
		entry.ItemID = nil
		if _, err := entries.Insert(ctx, scope.TenantID, entry); err != nil {
			return err
		}

		if _, err := entries.UpdateWhere(ctx, scope.TenantID,
			map[string]any{"item_id": item.ID},
			tenancy.Patch{"item_id": nil},
		); err != nil {
			return err
		}

		return items.Delete(ctx, scope.TenantID, item.ID)
	})
	if err != nil {
		return err
	}

	l.committed(scope, entry)
	return nil
}

func (l *Ledger) FindByBarcode(ctx context.Context, scope tenancy.Scope, barcode string) (*models.Item, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, ErrInvalidItem
	}
	return l.items.First(ctx, scope.TenantID, map[string]any{"barcode": barcode})
}

func (l *Ledger) GetItem(ctx context.Context, scope tenancy.Scope, itemID uuid.UUID) (*models.Item, error) {
	return l.items.Get(ctx, scope.TenantID, itemID)
}

func (l *Ledger) ListItems(ctx context.Context, scope tenancy.Scope) ([]models.Item, error) {
	return l.items.Find(ctx, scope.TenantID, tenancy.Filter{Order: "name ASC"})
}

// RecentActivity returns the newest entries of the tenant, newest first.
func (l *Ledger) RecentActivity(ctx context.Context, scope tenancy.Scope) ([]models.AuditEntry, error) {
	return l.entries.Find(ctx, scope.TenantID, tenancy.Filter{
		Order: "created_at DESC",
		Limit: ActivityLimit,
	})
}

// History returns the entries still linked to an item, oldest first.
func (l *Ledger) History(ctx context.Context, scope tenancy.Scope, itemID uuid.UUID) ([]models.AuditEntry, error) {
	return l.entries.Find(ctx, scope.TenantID, tenancy.Filter{
		Where: map[string]any{"item_id": itemID},
		Order: "created_at ASC",
	})
}

func (l *Ledger) inTx(ctx context.Context, op string, fn func(items *itemRepo, entries *entryRepo) error) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(l.items.WithTx(tx), l.entries.WithTx(tx))
	})
	if err == nil {
		return nil
	}

	metrics.LedgerFailures.WithLabelValues(op).Inc()
	switch {
	case errors.Is(err, ErrDuplicateBarcode), errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidItem):
		return err
	}
	err = tenancy.Classify(op, err)
	if tenancy.IsStorageError(err) {
		l.logger.Error("ledger transaction failed", "op", op, "error", err)
	}
	return err
}

func (l *Ledger) committed(scope tenancy.Scope, entry *models.AuditEntry) {
	metrics.LedgerEntries.WithLabelValues(string(entry.Type)).Inc()

	delta := 0
	if entry.QuantityDelta != nil {
		delta = *entry.QuantityDelta
	}
	l.logger.Debug("ledger entry committed",
		"tenant_id", scope.TenantID,
		"item", entry.ItemName,
		"type", entry.Type,
		"delta", delta,
		"prior", entry.PriorQuantity,
	)
}

func newEntry(scope tenancy.Scope, item *models.Item, typ models.AuditType, delta *int, prior int) *models.AuditEntry {
	itemID := item.ID
	return &models.AuditEntry{
		Type:          typ,
		QuantityDelta: delta,
		PriorQuantity: prior,
		ItemName:      item.Name,
		ActorName:     scope.Name,
		ItemID:        &itemID,
	}
}

// entryType classifies by the applied change, falling back to the
// requested direction when nothing changed.
func entryType(effective, requested int) models.AuditType {
	switch {
	case effective > 0:
		return models.AuditAdded
	case effective < 0:
		return models.AuditRemoved
	case requested < 0:
		return models.AuditRemoved
	}
	return models.AuditAdded
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func intPtr(n int) *int {
	return &n
}

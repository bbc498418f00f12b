package tenancy

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Owned constrains PT to be a pointer to a tenant-owned model T.
type Owned[T any] interface {
	*T
	models.TenantOwned
}

// Filter narrows a Find. Where keys are column names and are ANDed with the
// tenant predicate. Tenant ownership columns cannot be overridden.
type Filter struct {
	Where map[string]any
	Order string
	Limit int
}

// Patch is a set of column updates.
type Patch map[string]any

// Repository is a tenant-scoped data access layer for one model. Every query
// it issues carries a tenant_id predicate.
type Repository[T any, PT Owned[T]] struct {
	db *gorm.DB
}

func NewRepository[T any, PT Owned[T]](db *gorm.DB) *Repository[T, PT] {
	return &Repository[T, PT]{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *Repository[T, PT]) WithTx(tx *gorm.DB) *Repository[T, PT] {
	return &Repository[T, PT]{db: tx}
}

func (r *Repository[T, PT]) scoped(ctx context.Context, tenantID uuid.UUID) (*gorm.DB, error) {
	if tenantID == uuid.Nil {
		return nil, ErrMissingTenant
	}
	return r.db.WithContext(ctx).Model(PT(new(T))).Where("tenant_id = ?", tenantID), nil
}

// Find lists rows of the tenant matching the filter.
func (r *Repository[T, PT]) Find(ctx context.Context, tenantID uuid.UUID, f Filter) ([]T, error) {
	q, err := r.scoped(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if where := sanitize(f.Where); len(where) > 0 {
		q = q.Where(where)
	}
	if f.Order != "" {
		q = q.Order(f.Order)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, Classify("find", err)
	}
	return rows, nil
}

// First returns the first row matching where, or ErrNotFound.
func (r *Repository[T, PT]) First(ctx context.Context, tenantID uuid.UUID, where map[string]any) (PT, error) {
	q, err := r.scoped(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if where = sanitize(where); len(where) > 0 {
		q = q.Where(where)
	}

	row := PT(new(T))
	if err := q.Take(row).Error; err != nil {
		return nil, Classify("first", err)
	}
	return row, nil
}

// Get loads a row by id.
func (r *Repository[T, PT]) Get(ctx context.Context, tenantID, id uuid.UUID) (PT, error) {
	return r.get(ctx, tenantID, id, false)
}

// GetForUpdate loads a row by id and locks it until the surrounding
// transaction ends, on stores that support row locks.
func (r *Repository[T, PT]) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (PT, error) {
	return r.get(ctx, tenantID, id, true)
}

func (r *Repository[T, PT]) get(ctx context.Context, tenantID, id uuid.UUID, lock bool) (PT, error) {
	q, err := r.scoped(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	row := PT(new(T))
	if err := q.Where("id = ?", id).Take(row).Error; err != nil {
		return nil, Classify("get", err)
	}
	return row, nil
}

// Count returns the number of tenant rows matching where.
func (r *Repository[T, PT]) Count(ctx context.Context, tenantID uuid.UUID, where map[string]any) (int64, error) {
	q, err := r.scoped(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if where = sanitize(where); len(where) > 0 {
		q = q.Where(where)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, Classify("count", err)
	}
	return n, nil
}

// Insert stamps entity with tenantID and creates it.
func (r *Repository[T, PT]) Insert(ctx context.Context, tenantID uuid.UUID, entity PT) (PT, error) {
	if tenantID == uuid.Nil {
		return nil, ErrMissingTenant
	}
	entity.AssignTenant(tenantID)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return nil, Classify("insert", err)
	}
	return entity, nil
}

// Update applies patch to the tenant's row with the given id. The row is
// confirmed to belong to tenantID before it is written.
func (r *Repository[T, PT]) Update(ctx context.Context, tenantID, id uuid.UUID, patch Patch) (PT, error) {
	row, err := r.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	clean := sanitize(patch)
	delete(clean, "id")
	if len(clean) == 0 {
		return row, nil
	}

	res := r.db.WithContext(ctx).Model(row).
		Where("tenant_id = ?", tenantID).
		Updates(clean)
	if res.Error != nil {
		return nil, Classify("update", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, tenantID, id)
}

// UpdateWhere applies patch to every tenant row matching where and returns
// the number of rows touched.
func (r *Repository[T, PT]) UpdateWhere(ctx context.Context, tenantID uuid.UUID, where map[string]any, patch Patch) (int64, error) {
	q, err := r.scoped(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if where = sanitize(where); len(where) > 0 {
		q = q.Where(where)
	}
	clean := sanitize(patch)
	delete(clean, "id")
	if len(clean) == 0 {
		return 0, nil
	}

	res := q.Updates(clean)
	if res.Error != nil {
		return 0, Classify("update where", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes the tenant's row with the given id.
func (r *Repository[T, PT]) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if tenantID == uuid.Nil {
		return ErrMissingTenant
	}
	res := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(PT(new(T)))
	if res.Error != nil {
		return Classify("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// sanitize copies m without the tenant ownership column.
func sanitize[M ~map[string]any](m M) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == "tenant_id" {
			continue
		}
		out[k] = v
	}
	return out
}

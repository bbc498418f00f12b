package tenancy

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound covers both a missing row and a row owned by another tenant.
	ErrNotFound      = errors.New("record not found")
	ErrMissingTenant = errors.New("tenant id is required")
	ErrDuplicateKey  = errors.New("duplicate key")
)

// StorageError reports an unclassified failure of the underlying store. Its
// message is internal and never reaches API callers.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is, or wraps, a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// Classify maps a raw gorm error onto the package sentinels. Errors that
// are already classified pass through unchanged.
func Classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case IsUniqueViolation(err):
		return ErrDuplicateKey
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrMissingTenant), IsStorageError(err):
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsUniqueViolation recognises unique constraint failures from postgres and
// sqlite, translated or not.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicateKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}

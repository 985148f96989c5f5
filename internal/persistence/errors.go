package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrStaleStatus is returned when a status-guarded update matched the row
	// but the row's current status was not among the expected values.
	ErrStaleStatus = errors.New("persistence: status changed concurrently")
	// ErrConstraintViolation is returned when a CHECK constraint or a
	// repository-level guard rejects the write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)

package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a unique constraint rejected the write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleState indicates an optimistic update matched no row in the expected state.
	ErrStaleState = errors.New("record state changed concurrently")
)

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

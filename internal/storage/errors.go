package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no swatch or mockup exists at the key.
	ErrNotFound = errors.New("object not found")

	// ErrKeyExists is returned by Put when Overwrite is false.
	ErrKeyExists = errors.New("object already exists at this key")

	// ErrInvalidKey covers empty keys and keys that escape the base path.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrTooLarge is returned by Put when the body exceeds PutOptions.MaxSize.
	ErrTooLarge = errors.New("object exceeds maximum size")

	// ErrAccessDenied means the bucket rejected the R2 credentials.
	ErrAccessDenied = errors.New("access denied")
)

// StorageError records which backend call failed and for which key.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the object is missing. Callers use it
// to tell an absent fabric swatch apart from a backend failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

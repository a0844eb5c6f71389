package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNotFound           = errors.New("key not found")
	ErrCapacity           = errors.New("storage capacity exceeded")
	ErrPrivateSpaceExists = errors.New("private space already exists")
	ErrEmptyPassword      = errors.New("private space password cannot be empty")
	ErrInvalidNote        = errors.New("invalid note")
	ErrInvalidDocument    = errors.New("invalid document")
)

// QuotaScope identifies which ceiling a QuotaError refers to.
type QuotaScope string

const (
	QuotaFile    QuotaScope = "file"
	QuotaTotal   QuotaScope = "total"
	QuotaStorage QuotaScope = "storage"
)

// QuotaError reports a size ceiling that would be exceeded.
// It is user-correctable by deleting content.
type QuotaError struct {
	Scope     QuotaScope
	Limit     int64
	Requested int64
	Err       error
}

func (e *QuotaError) Error() string {
	switch e.Scope {
	case QuotaFile:
		return fmt.Sprintf("file size exceeds maximum limit of %s", formatMiB(e.Limit))
	case QuotaTotal:
		return fmt.Sprintf("total storage would exceed maximum limit of %s", formatMiB(e.Limit))
	default:
		return "storage quota exceeded, delete some documents to free up space"
	}
}

func (e *QuotaError) Unwrap() error { return e.Err }

// PersistenceError reports a failed read, write or delete on an underlying store.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("failed to %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func formatMiB(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%.1fMB", float64(n)/mib)
}

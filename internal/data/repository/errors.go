package repository

import "errors"

var (
	// ErrNotFound is returned by lookups that must find a row, such as balance locks.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateReference means a payment reference already reached completed.
	ErrDuplicateReference = errors.New("payment reference already completed")
)

// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist or has been evicted.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a malformed or incomplete request.
var ErrValidation = errors.New("validation failed")

// ErrConflict indicates an operation raced with a concurrent modification.
var ErrConflict = errors.New("conflict: resource was modified by another request")

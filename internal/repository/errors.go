// Package repository defines error types that are reused across
// repositories. These sentinel values let handlers distinguish failure
// scenarios without depending on driver error text. For example,
// ErrForbidden indicates that the requester does not own the dataset
// being read, while ErrEmailExists signals that account creation hit
// the unique-email constraint.
package repository

import "errors"

// ErrEmailExists is returned when an account with the same email
// already exists. Uniqueness is enforced by the database index, so a
// check-then-insert race still surfaces here. Handlers translate this
// into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a requested record does not exist.
// Handlers translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts to read a dataset
// owned by someone else. Handlers translate this into HTTP 403; the
// response body must not reveal anything else about the dataset.
var ErrForbidden = errors.New("forbidden")

// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a row with the requested id does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a delete cannot be performed because of
// dependent records, such as deleting a course that still has
// registrations. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert or update would create a
// second live registration for the same email and course. The storage
// layer enforces this with a unique index.
var ErrDuplicate = errors.New("duplicate")

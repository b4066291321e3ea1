package service

import "errors"

// Errors returned by the registration and capacity services.  Handlers map
// them onto HTTP status codes with errors.Is.
var (
	// ErrNotFound: the registration does not exist.
	ErrNotFound = errors.New("registration not found")
	// ErrCourseNotFound: the course does not exist (or vanished mid-operation).
	ErrCourseNotFound = errors.New("course not found")
	// ErrDuplicateRegistration: the email already holds a live registration for the course.
	ErrDuplicateRegistration = errors.New("this email is already registered for the course")
	// ErrInsufficientCapacity: not enough free seats and the course is not yet full.
	ErrInsufficientCapacity = errors.New("not enough spots available")
	// ErrValidation: the request itself is malformed.
	ErrValidation = errors.New("validation failed")
)

package models

import (
	"errors"
)

var (
	ErrNoRecord           = errors.New("models: no matching record found")
	ErrDuplicate          = errors.New("models: duplicate record")
	ErrInvalidCredentials = errors.New("models: invalid credentials")
	ErrDuplicateEmail     = errors.New("models: duplicate email")
	ErrUserNotFound       = errors.New("models: user not found")
	ErrForbidden          = errors.New("models: forbidden")
	ErrEmailUnresolved    = errors.New("models: owner email unresolved")
	ErrEmptyMessage       = errors.New("models: empty message")
	ErrInvalidInput       = errors.New("models: invalid input")
)

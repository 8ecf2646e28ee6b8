package entities

import "errors"

// Store-level errors shared by every User record store implementation.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrRecordExists   = errors.New("record already exists")
	ErrEmailTaken     = errors.New("email already belongs to another profile")
)

package domain

import "errors"

var (
	ErrBusy            = errors.New("another operation is in progress")
	ErrDuplicateMod    = errors.New("mod already exists")
	ErrInvalidArchive  = errors.New("invalid mod archive")
	ErrInvalidOptions  = errors.New("invalid mod options")
	ErrInvalidPosition = errors.New("invalid position")
	ErrMetaRequired    = errors.New("mod metadata is required")
	ErrMissingMeta     = errors.New("mod has no meta.yml")
	ErrModNotFound     = errors.New("mod not found")
	ErrProfileNotFound = errors.New("profile not found")
)

package checkapi

import "errors"

var (
	// ErrItemNotFound is returned by a check when the requested entity is
	// missing from the section data.
	ErrItemNotFound = errors.New("item not found in monitoring data")

	ErrSectionType      = errors.New("unexpected section type")
	ErrDuplicatePlugin  = errors.New("plugin already registered")
	ErrDuplicateSection = errors.New("section already registered")
)

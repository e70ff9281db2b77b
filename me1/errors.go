package me1

import (
	"github.com/pkg/errors"

	"masseffect-save-edit/memory"
)

// Decode and encode failures are unrecoverable for the file being
// processed: the whole operation fails and surfaces one of these at the
// root of its error chain. There is no partial result.
var (
	ErrTruncatedInput      = memory.ErrTruncatedInput
	ErrNameIndexOutOfRange = errors.New("name index out of range")
	ErrUnknownPropertyType = errors.New("unknown property type")
	ErrMissingArchiveEntry = errors.New("missing archive entry")
	ErrContainerFormat     = errors.New("container format error")
	ErrValueOutOfRange     = errors.New("value out of range")
	ErrDepthExceeded       = errors.New("property nesting too deep")
)

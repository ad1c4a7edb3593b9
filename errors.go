package retouch

import "github.com/pkg/errors"

// Errors returned by the editing engine.
var (
	ErrLayerNotFound   = errors.New("layer not found")
	ErrDuplicateLayer  = errors.New("layer already exists")
	ErrInvalidMove     = errors.New("invalid layer move")
	ErrLayerLocked     = errors.New("layer is locked")
	ErrNotPixelLayer   = errors.New("layer holds no pixels")
	ErrNoActiveLayer   = errors.New("no active layer")
	ErrNoSelection     = errors.New("no active selection")
	ErrTraceOverflow   = errors.New("boundary trace exceeded its step bound")
	ErrNoInpaintSource = errors.New("no fully known patch to sample from")
	ErrUnknownStep     = errors.New("unknown script step")
)

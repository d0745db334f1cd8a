package framework

import "errors"

var (
	ErrUnknownRenderer  = errors.New("framework: unknown renderer")
	ErrUnknownComponent = errors.New("framework: unknown component")
	ErrUnknownTechnique = errors.New("framework: unknown technique")
	ErrOptionUnknown    = errors.New("framework: unknown render option")
	ErrOptionType       = errors.New("framework: render option type mismatch")
	ErrResourceConflict = errors.New("framework: shared resource declaration conflict")
	ErrResourceUnsized  = errors.New("framework: shared resource has no valid size")
	ErrNoRenderer       = errors.New("framework: no renderer selected")
)

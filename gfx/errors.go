package gfx

import "errors"

var (
	ErrBufferReleased  = errors.New("gfx: operation on released buffer")
	ErrTextureReleased = errors.New("gfx: operation on released texture")
	ErrKernelReleased  = errors.New("gfx: operation on released kernel")
	ErrOutOfRange      = errors.New("gfx: read/write exceeds allocation size")
)

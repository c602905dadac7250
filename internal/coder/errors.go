package coder

import "errors"

// Codec error kinds. Every error returned by this package and by the
// instructions package wraps exactly one of these, so callers can tell them
// apart with errors.Is.
var (
	ErrRange                = errors.New("value out of range")
	ErrFormat               = errors.New("invalid format")
	ErrLength               = errors.New("input too short")
	ErrMalformedInstruction = errors.New("malformed instruction")
	ErrCompose              = errors.New("invalid batch composition")
)

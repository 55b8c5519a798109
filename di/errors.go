package di

import "errors"

var (
	ErrFinalized       = errors.New("di: container is finalized")
	ErrNotFinalized    = errors.New("di: container is not finalized")
	ErrClosed          = errors.New("di: container is closed")
	ErrUnsatisfied     = errors.New("di: unsatisfied dependency")
	ErrAmbiguous       = errors.New("di: ambiguous dependency")
	ErrCircular        = errors.New("di: circular dependency")
	ErrUnknownScope    = errors.New("di: unknown scope")
	ErrScopeNotActive  = errors.New("di: scope is not active")
	ErrScopeActive     = errors.New("di: scope is already active")
	ErrUnknownID       = errors.New("di: unknown component id")
	ErrInvalidBinding  = errors.New("di: invalid binding")
	ErrInvalidTarget   = errors.New("di: injection target must be a non-nil pointer to struct")
	ErrUnexportedField = errors.New("di: injected field must be exported")
	ErrReleased        = errors.New("di: resolution context is released")
)

const (
	errConstructorNil        = "constructor must not be nil"
	errConstructorNotFunc    = "constructor must be a function"
	errConstructorResults    = "constructor must return 1 value (and optional error)"
	errConstructorSecondErr  = "constructor's second result must be error"
	errUnsupportedOptionType = "unsupported option type %T"
)

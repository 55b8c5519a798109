package bridge

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyChain        = errors.New("bridge: instance chain is empty")
	ErrInvalidInstance   = errors.New("bridge: instance must be a non-nil pointer to struct")
	ErrDuplicateInstance = errors.New("bridge: instance appears twice in the chain")
	ErrAlreadyDiscovered = errors.New("bridge: instance already discovered")
	ErrPhase             = errors.New("bridge: invalid pass phase")
	ErrInvalidMember     = errors.New("bridge: invalid member declaration")
	ErrAmbiguousScope    = errors.New("bridge: member declares more than one scope")
	ErrAmbiguousDisposal = errors.New("bridge: more than one disposal method matches")
	ErrInvocation        = errors.New("bridge: member invocation failed")
)

// MemberError identifies the member an extraction, registration or
// invocation failure belongs to.
type MemberError struct {
	Member string
	Op     string
	Err    error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("bridge: %s %s: %v", e.Op, e.Member, e.Err)
}

func (e *MemberError) Unwrap() error { return e.Err }

func memberErr(member, op string, err error) error {
	if err == nil {
		return nil
	}
	return &MemberError{Member: member, Op: op, Err: err}
}

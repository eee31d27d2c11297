package stream

import "errors"

// Structural marks errors meaning "this container or chunk is not present".
// Such errors drive extractor applicability and are never reported as faults.
type Structural interface {
	error
	Structural() bool
}

// IsStructural reports whether any error in err's chain is structural.
func IsStructural(err error) bool {
	var s Structural
	return errors.As(err, &s) && s.Structural()
}

// StructuralError is a sentinel-style structural error.
type StructuralError struct {
	msg string
}

// NewStructural returns a structural sentinel with the given message.
func NewStructural(msg string) *StructuralError {
	return &StructuralError{msg: msg}
}

func (e *StructuralError) Error() string { return e.msg }

// Structural implements Structural.
func (e *StructuralError) Structural() bool { return true }

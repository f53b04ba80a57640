package connection_method

import (
	"errors"
	"fmt"
)

var (
	// ErrVariantMismatch is matched by every VariantMismatchError.
	ErrVariantMismatch = errors.New("connection_method: method type does not match variant")

	// ErrMalformed reports a method that is not [type, version, options] or
	// carries an option of the wrong kind.
	ErrMalformed = errors.New("connection_method: malformed connection method")

	// ErrUnknownMethodType is returned by Decode when no variant claims the
	// method type.
	ErrUnknownMethodType = errors.New("connection_method: unknown method type")
)

// VariantMismatchError is returned when a method is decoded as a variant
// whose type id differs from the one on the wire. Callers should try the
// next variant.
type VariantMismatchError struct {
	Variant  string
	Expected uint64
	Actual   uint64
}

func (e *VariantMismatchError) Error() string {
	return fmt.Sprintf("connection_method: %s expects method type %d, got %d", e.Variant, e.Expected, e.Actual)
}

func (e *VariantMismatchError) Is(target error) bool {
	return target == ErrVariantMismatch
}

// IsVariantMismatch checks if an error is caused by decoding the wrong variant
func IsVariantMismatch(err error) bool {
	var mismatchErr *VariantMismatchError
	return errors.As(err, &mismatchErr)
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

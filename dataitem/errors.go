package dataitem

import (
	"errors"
	"fmt"
)

// ErrFormat is matched by every FormatError.
var ErrFormat = errors.New("dataitem: malformed input")

// ErrType is returned by the As* accessors when an item has another kind.
var ErrType = errors.New("dataitem: unexpected item kind")

// FormatError reports malformed binary input: truncation, an unrecognized
// initial byte, or a declared length exceeding the remaining buffer.
type FormatError struct {
	Offset int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("dataitem: format error at offset %d: %s", e.Offset, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// IsFormatError checks if an error is caused by malformed input.
func IsFormatError(err error) bool {
	var formatErr *FormatError
	return errors.As(err, &formatErr)
}

func typeError(item DataItem, want string) error {
	return fmt.Errorf("%w: want %s, got %T", ErrType, want, item)
}

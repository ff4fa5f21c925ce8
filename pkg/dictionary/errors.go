package dictionary

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is to classify an error returned by this package.
var (
	ErrIO         = errors.New("dictionary: io failure")
	ErrFormat     = errors.New("dictionary: format failure")
	ErrValidation = errors.New("dictionary: validation failure")
)

// IOError reports a dictionary file that could not be opened, read or
// written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s dictionary %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// FormatError reports a dictionary file line that does not hold a valid
// entry.
type FormatError struct {
	Path   string
	Line   int
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %q", e.Path, e.Line, e.Reason, e.Text)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

func validate(e *Entry) error {
	switch {
	case e == nil:
		return fmt.Errorf("%w: nil entry", ErrValidation)
	case e.Traditional == "":
		return fmt.Errorf("%w: traditional must be non-empty", ErrValidation)
	case e.Simplified == "":
		return fmt.Errorf("%w: simplified must be non-empty", ErrValidation)
	case e.Pinyin == "":
		return fmt.Errorf("%w: pinyin must be non-empty", ErrValidation)
	}
	return nil
}

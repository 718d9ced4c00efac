package fault

import (
	"errors"
	"fmt"
)

type Code string

const (
	UnknownCode Code = "unknown"

	// SourceAccessCode marks failures opening or reading a line source.
	SourceAccessCode Code = "source_access"
	// MalformedLineCode marks lines that are not a valid JSON object.
	MalformedLineCode Code = "malformed_line"
	// InvalidFieldCode marks reified fields whose value fails its
	// conversion rule (bad timestamp, non-string level, ...).
	InvalidFieldCode Code = "invalid_field"
	// FilterConfigCode marks invalid filter configuration, raised when a
	// filter is built, never during evaluation.
	FilterConfigCode Code = "filter_config"
)

// LineInfo is the metadata attached to per-line parse faults.
type LineInfo struct {
	Line int
	Raw  string
}

// FieldInfo is the metadata attached to reified-field conversion faults.
type FieldInfo struct {
	Line  int
	Field string
	Raw   string
}

type Fault struct {
	code     Code
	message  string
	metadata any
	original error
}

func New(code Code, message string) Fault {
	return Fault{
		code:    code,
		message: message,
	}
}

func (f Fault) WithMetadata(metadata any) Fault {
	e := f
	e.metadata = metadata
	return e
}

func (f Fault) WithOriginal(original error) Fault {
	e := f
	e.original = original
	return e
}

func (f Fault) Code() Code {
	return f.code
}

func (f Fault) Message() string {
	return f.message
}

func (f Fault) Metadata() any {
	return f.metadata
}

func (f Fault) Unwrap() error {
	return f.original
}

func (f Fault) Error() string {
	if f.original != nil {
		return fmt.Sprintf("%s: %v", f.message, f.original)
	}
	return f.message
}

// CodeOf extracts the fault code from any error in err's chain, or
// UnknownCode when there is none.
func CodeOf(err error) Code {
	var f Fault
	if errors.As(err, &f) {
		return f.Code()
	}
	return UnknownCode
}

// LineOf extracts the 1-based line number carried by a parse fault, or 0.
func LineOf(err error) int {
	var f Fault
	if !errors.As(err, &f) {
		return 0
	}
	switch md := f.Metadata().(type) {
	case LineInfo:
		return md.Line
	case FieldInfo:
		return md.Line
	}
	return 0
}

// FieldOf extracts the reified field name carried by an invalid-field
// fault, or "".
func FieldOf(err error) string {
	var f Fault
	if !errors.As(err, &f) {
		return ""
	}
	if md, ok := f.Metadata().(FieldInfo); ok {
		return md.Field
	}
	return ""
}

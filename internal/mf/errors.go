package mf

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEOF is returned when the cursor is asked for a record
	// past the end of its source.
	ErrUnexpectedEOF = errors.New("unexpected end of input")

	// ErrNotImplemented is returned by package decoders that declare a tag
	// but carry no decode routine. Callers treat it as a non-fatal skip.
	ErrNotImplemented = errors.New("decode not implemented")

	// ErrUnsupportedFeature is returned when an input requires an optional
	// capability (dataset-container slicing) that was not injected.
	ErrUnsupportedFeature = errors.New("unsupported feature")
)

// ConversionError reports a token that could not be converted to the
// requested type.
type ConversionError struct {
	Token string
	Kind  string
	Name  string
}

func (e *ConversionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("cannot convert %s=%q to %s", e.Name, e.Token, e.Kind)
	}
	return fmt.Sprintf("cannot convert %q to %s", e.Token, e.Kind)
}

// SizeMismatchError reports a payload that produced the wrong number of
// elements for the requested array shape.
type SizeMismatchError struct {
	Expected int
	Found    int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("expected %d elements, found %d", e.Expected, e.Found)
}

// ControlLineError reports an array control line that could not be
// classified or parsed.
type ControlLineError struct {
	Line   string
	Reason string
}

func (e *ControlLineError) Error() string {
	return fmt.Sprintf("%s: %q", e.Reason, e.Line)
}

// MissingSourceError reports a unit number or file name that could not be
// resolved to an open source.
type MissingSourceError struct {
	Unit int
	File string
	Err  error
}

func (e *MissingSourceError) Error() string {
	switch {
	case e.File != "" && e.Err != nil:
		return fmt.Sprintf("cannot open source %q: %v", e.File, e.Err)
	case e.File != "":
		return fmt.Sprintf("cannot resolve source %q", e.File)
	default:
		return fmt.Sprintf("unit %d is not registered", e.Unit)
	}
}

func (e *MissingSourceError) Unwrap() error { return e.Err }

// DecodeError carries the location of a failure inside one package's
// decode. It is attached exactly once, at the package decode boundary.
type DecodeError struct {
	Tag     string
	File    string
	Line    int
	DataSet string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s:%s:%d:data set %s: %v", e.Tag, e.File, e.Line, e.DataSet, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

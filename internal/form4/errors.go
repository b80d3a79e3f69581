package form4

import (
	"errors"
	"fmt"
)

// ErrDecode matches every error returned by Decode via errors.Is.
// A decode failure means "skip this document"; retrying the same bytes
// will fail the same way.
var ErrDecode = errors.New("form4: decode failed")

// ErrEnvelope is returned when a piece of the submission wrapper is missing.
type ErrEnvelope struct {
	Part string // "accession number", "file name" or "xml block"
}

func (e *ErrEnvelope) Error() string {
	return fmt.Sprintf("form4: envelope: no %s found", e.Part)
}

func (e *ErrEnvelope) Is(target error) bool { return target == ErrDecode }

// ErrMalformedXML is returned when the embedded payload is not well-formed.
type ErrMalformedXML struct {
	Err error
}

func (e *ErrMalformedXML) Error() string {
	return fmt.Sprintf("form4: malformed xml: %v", e.Err)
}

func (e *ErrMalformedXML) Unwrap() error { return e.Err }

func (e *ErrMalformedXML) Is(target error) bool { return target == ErrDecode }

// ErrMissingField is returned when a required element or text is absent.
type ErrMissingField struct {
	Path string // e.g. "issuer/issuerTradingSymbol"
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("form4: missing field %s", e.Path)
}

func (e *ErrMissingField) Is(target error) bool { return target == ErrDecode }

// ErrInvalidNumber is returned when a required numeric leaf does not parse.
type ErrInvalidNumber struct {
	Field string
	Value string
	Err   error
}

func (e *ErrInvalidNumber) Error() string {
	return fmt.Sprintf("form4: invalid number in %s: %q", e.Field, e.Value)
}

func (e *ErrInvalidNumber) Unwrap() error { return e.Err }

func (e *ErrInvalidNumber) Is(target error) bool { return target == ErrDecode }

func missing(path string) error { return &ErrMissingField{Path: path} }

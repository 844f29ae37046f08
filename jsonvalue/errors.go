package jsonvalue

import (
	"errors"
	"fmt"
)

var (
	// ErrParse reports text that is not valid JSON, or a tree that could not
	// be serialized back to text.
	ErrParse = errors.New("jsonvalue: parse error")
	// ErrEncode reports a wire payload that matches no known tag, or an
	// object that produced nothing to encode.
	ErrEncode = errors.New("jsonvalue: encode error")
	// ErrDataCoding reports bytes that are not valid UTF-8 where text is required.
	ErrDataCoding = errors.New("jsonvalue: data coding error")
	// ErrNotValidContent reports a parsed root (or leaf) of the wrong shape.
	ErrNotValidContent = errors.New("jsonvalue: not valid content")
)

// Error carries one of the sentinel kinds above plus a human readable
// description and an optional cause. errors.Is matches both the kind and the
// cause.
type Error struct {
	Kind        error
	Description string
	Err         error
}

// NewError builds an *Error of the given kind.
func NewError(kind error, description string, cause error) *Error {
	return &Error{Kind: kind, Description: description, Err: cause}
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Description != "":
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Description, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	case e.Description != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Description)
	default:
		return fmt.Sprint(e.Kind)
	}
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

var errInvalidSyntax = errors.New("invalid JSON syntax")

// Package errors provides the error taxonomy for remote product operations.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrTransport  = errors.New("transport error")
	ErrNotFound   = errors.New("product not found")
	ErrParse      = errors.New("unparsable response body")
	ErrValidation = errors.New("invalid product")
)

// TransportError is returned on network failures and non-2xx responses.
// StatusCode is zero when the request never produced a response.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// NotFoundError reports that the remote service has no product with ID.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product with ID %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ParseError is returned when a non-delete response carries a body that
// cannot be decoded, or no body where a record is required.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, ErrParse)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrParse, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ValidationError holds the failed rule per field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

package gateway

import (
	"bytes"
	"encoding/json"
)

// Kind tags the outcome of decoding a response body.
type Kind int

const (
	// Success means the body held valid JSON for the target type.
	Success Kind = iota
	// EmptySuccess means the body was empty or whitespace only.
	EmptySuccess
	// ParseFailure means the body was present but could not be decoded.
	ParseFailure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case EmptySuccess:
		return "empty_success"
	case ParseFailure:
		return "parse_failure"
	default:
		return "unknown"
	}
}

// Result is the decoded body of a 2xx response.
// Value is set only for Success and Err only for ParseFailure.
type Result[T any] struct {
	Kind  Kind
	Value T
	Err   error
}

// Decode classifies body and decodes it into T.
func Decode[T any](body []byte) Result[T] {
	if len(bytes.TrimSpace(body)) == 0 {
		return Result[T]{Kind: EmptySuccess}
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return Result[T]{Kind: ParseFailure, Err: err}
	}
	return Result[T]{Kind: Success, Value: v}
}

// Tolerant downgrades a ParseFailure to EmptySuccess. Delete responses go
// through it since their bodies carry nothing the caller needs.
func (r Result[T]) Tolerant() Result[T] {
	if r.Kind == ParseFailure {
		return Result[T]{Kind: EmptySuccess}
	}
	return r
}

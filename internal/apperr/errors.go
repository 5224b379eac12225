// Package apperr holds the error taxonomy every handler answers with.
// Services return *Error values; the fiber ErrorHandler turns them into
// {"success": false, "error": "..."} with the matching status code.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthRequired
	KindForbidden
	KindNotFound
	KindConflict
	KindUnavailable
)

func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return fiber.StatusBadRequest
	case KindAuthRequired:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }
func AuthRequired(msg string) *Error { return &Error{Kind: KindAuthRequired, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }

// Wrap marks a storage or collaborator failure. msg is what the client sees,
// err stays in the logs.
func Wrap(err error, msg string) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FromValidation flattens validator errors into one readable message.
func FromValidation(err error) *Error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return Validation("Invalid request body")
	}
	parts := make([]string, 0, len(ves))
	for _, ve := range ves {
		parts = append(parts, describe(ve))
	}
	return Validation(strings.Join(parts, ", "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	}
	return field + " is invalid"
}

package services

import (
	"errors"
	"fmt"
	"net/http"

	"gymcore-backend-go/internal/observability"
	"gymcore-backend-go/internal/policy"
)

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindUnauthorized  ErrorKind = "unauthorized"
)

// ServiceError is the only error type the HTTP layer turns into a non-500
// response.
type ServiceError struct {
	Status  int
	Kind    ErrorKind
	Message string
	// Details is the diagnostic payload of a conflict.
	Details any
	// Fields maps payload field names to validation failures.
	Fields map[string]string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: http.StatusNotFound, Kind: KindNotFound, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Kind: KindValidation, Message: msg}
}

func ErrValidation(fields map[string]string) error {
	return ServiceError{Status: http.StatusBadRequest, Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: http.StatusForbidden, Kind: KindAuthorization, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: http.StatusUnauthorized, Kind: KindUnauthorized, Message: msg}
}

func ErrConflict(msg string, details any) error {
	return ServiceError{Status: http.StatusConflict, Kind: KindConflict, Message: msg, Details: details}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// denied turns a policy denial into an authorization error.
func denied(err error) error {
	var d *policy.DeniedError
	if errors.As(err, &d) {
		observability.RecordDenial(string(d.Kind), string(d.Action))
		return ErrForbidden(d.Reason)
	}
	return err
}

func IsKind(err error, kind ErrorKind) bool {
	var serr ServiceError
	return errors.As(err, &serr) && serr.Kind == kind
}

package application

import (
	"errors"
	"fmt"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeLotNotFound        = "LOT_NOT_FOUND"
	ErrCodePermissionDenied   = "PERMISSION_DENIED"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

func NewLotNotFoundError(err error) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeLotNotFound,
		Message: "Lot not found",
		Err:     err,
	}
}

func NewPermissionDeniedError(msg string) *ServiceError {
	return &ServiceError{
		Code:    ErrCodePermissionDenied,
		Message: msg,
	}
}

func NewInvalidInputError(err error) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeInvalidInput,
		Message: "Invalid input",
		Err:     err,
	}
}

func NewInvalidStateError(err error) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeInvalidState,
		Message: "Invalid state",
		Err:     err,
	}
}

func NewServiceUnavailableError(service string, err error) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeServiceUnavailable,
		Message: fmt.Sprintf("%s is unavailable", service),
		Err:     err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

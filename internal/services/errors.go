package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes are part of the API contract; clients branch on them.
const (
	CodeValidation         = "validation_error"
	CodeCommitmentNotFound = "commitment_not_found"
	CodeInvalidTransaction = "invalid_transaction"
	CodeIntegrity          = "integrity_error"
	CodeAuthentication     = "authentication_error"
	CodeLimitReached       = "limit_reached"
	CodeUpstream           = "upstream_error"
)

type Error struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts a taxonomy error; unknown errors are reported as
// upstream failures so internals never leak to callers.
func AsError(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Code: CodeUpstream, Status: http.StatusBadGateway, Message: "internal failure"}
}

func validationError(format string, args ...interface{}) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func commitmentNotFoundError() *Error {
	return &Error{
		Code:    CodeCommitmentNotFound,
		Status:  http.StatusNotFound,
		Message: "commitment not found, expired, or already used",
	}
}

func invalidTransactionError(reason string) *Error {
	return &Error{
		Code:    CodeInvalidTransaction,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("transfer rejected: %s", reason),
	}
}

// integrityError carries detail for the log only; the caller sees a
// generic message.
func integrityError(err error) *Error {
	return &Error{
		Code:    CodeIntegrity,
		Status:  http.StatusInternalServerError,
		Message: "internal integrity check failed",
		Err:     err,
	}
}

func authenticationError(reason string) *Error {
	return &Error{
		Code:    CodeAuthentication,
		Status:  http.StatusUnauthorized,
		Message: reason,
	}
}

func limitError(max int) *Error {
	return &Error{
		Code:    CodeLimitReached,
		Status:  http.StatusForbidden,
		Message: fmt.Sprintf("escalation limit of %d reached", max),
	}
}

func upstreamError(msg string, err error) *Error {
	return &Error{Code: CodeUpstream, Status: http.StatusBadGateway, Message: msg, Err: err}
}

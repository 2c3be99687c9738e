// Package businessflow contains the core business logic and use cases for account mutation workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Account-related errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountNameInvalid  = errors.New("account name is invalid")
	ErrAccountNotPersisted = errors.New("account row does not exist in storage")
	ErrCallerBlocked       = errors.New("caller account is blocked")
	ErrCallerNotStaff      = errors.New("caller is not a staff account")

	// Email errors
	ErrEmailInvalid                = errors.New("email address is malformed")
	ErrEmailRequiredForProvisional = errors.New("a provisional registration requires a new email address")

	// Verification errors
	ErrEmailNotApplied    = errors.New("email change did not persist")
	ErrRealNameNotApplied = errors.New("real name change did not persist")
	ErrCloseNotVerified   = errors.New("account email still present after close")

	// Audit errors
	ErrAuditNotRecorded = errors.New("audit entry could not be recorded")
)

// Mutation failure kinds classify why an account mutation was rejected or
// abandoned.
type MutationFailureKind string

const (
	FailureValidation   MutationFailureKind = "validation"
	FailureNotPersisted MutationFailureKind = "not_persisted"
	FailureStorage      MutationFailureKind = "storage"
	FailureVerification MutationFailureKind = "verification"
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// MutationError is a BusinessError tagged with the failure kind of the
// mutation taxonomy.
type MutationError struct {
	Kind    MutationFailureKind
	Message string
	Err     error
}

func (e *MutationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

func NewMutationError(kind MutationFailureKind, message string, err error) *MutationError {
	return &MutationError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// FailureKindOf extracts the mutation failure kind, or "" for other errors.
func FailureKindOf(err error) MutationFailureKind {
	var me *MutationError
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}

func IsValidationFailure(err error) bool {
	return FailureKindOf(err) == FailureValidation
}

func IsNotPersistedFailure(err error) bool {
	return FailureKindOf(err) == FailureNotPersisted
}

func IsStorageFailure(err error) bool {
	return FailureKindOf(err) == FailureStorage
}

func IsVerificationFailure(err error) bool {
	return FailureKindOf(err) == FailureVerification
}

func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

func IsAccountNameInvalid(err error) bool {
	return errors.Is(err, ErrAccountNameInvalid)
}

func IsCallerBlocked(err error) bool {
	return errors.Is(err, ErrCallerBlocked)
}

func IsCallerNotStaff(err error) bool {
	return errors.Is(err, ErrCallerNotStaff)
}

func IsEmailInvalid(err error) bool {
	return errors.Is(err, ErrEmailInvalid)
}

func IsEmailRequiredForProvisional(err error) bool {
	return errors.Is(err, ErrEmailRequiredForProvisional)
}

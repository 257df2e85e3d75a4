package services

import (
	"errors"
	"fmt"
)

// Kind classifies service failures so the transport can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateCredential
	KindDuplicateEntity
	KindInvalidCredentials
	KindTokenInvalid
	KindMissingPrincipal
	KindInsufficientRole
	KindNotFound
)

var kindNames = map[Kind]string{
	KindInternal:            "internal",
	KindValidation:          "validation",
	KindDuplicateCredential: "duplicate_credential",
	KindDuplicateEntity:     "duplicate_entity",
	KindInvalidCredentials:  "invalid_credentials",
	KindTokenInvalid:        "token_invalid",
	KindMissingPrincipal:    "missing_principal",
	KindInsufficientRole:    "insufficient_role",
	KindNotFound:            "not_found",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MsgUnexpected is the only text callers see for internal failures.
const MsgUnexpected = "Unexpected error, check server logs"

// Error is a classified service failure. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func internalError(err error) *Error {
	return newError(KindInternal, MsgUnexpected, err)
}

// KindOf returns the kind of err, or KindInternal when err is not a service error.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return MsgUnexpected
}

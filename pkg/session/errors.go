package session

import "errors"

var (
	// ErrEmptyCredential indicates Login was called without a credential
	ErrEmptyCredential = errors.New("session.empty_credential")

	// ErrNilStore indicates the manager was built without a credential store
	ErrNilStore = errors.New("session.nil_store")

	// ErrNilValidator indicates the manager was built without a validator
	ErrNilValidator = errors.New("session.nil_validator")

	// ErrClosed indicates the manager has been closed
	ErrClosed = errors.New("session.closed")
)

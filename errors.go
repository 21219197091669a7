// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package dwn

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrShuttingDown is returned by a node that received Shutdown() while
// a message was still in flight.
var ErrShuttingDown = fmt.Errorf("dwn: shutting down now")

// ErrNoSuchBlob is returned by blob stores for absent content or a
// missing message association.
var ErrNoSuchBlob = fmt.Errorf("dwn: no such blob")

// ValidationError marks a malformed descriptor or a broken
// signature-integrity binding. Handlers turn it into a 400 reply.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return "dwn: invalid message: " + e.Reason
}

func Validationf(format string, args ...interface{}) ValidationError {
	return ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// AuthenticationError marks a signature that is present but
// unverifiable, or a signer that cannot be resolved. Handlers turn it
// into a 401 reply.
type AuthenticationError struct {
	Signer DID
	Cause  error
}

func (e AuthenticationError) Error() string {
	return fmt.Sprintf("dwn: could not authenticate %s: %s", e.Signer, e.Cause)
}

func (e AuthenticationError) Unwrap() error { return e.Cause }

func IsAuthenticationError(err error) bool {
	var ae AuthenticationError
	return errors.As(err, &ae)
}

// AuthorizationError marks a requester that authenticated fine (or is
// legitimately anonymous) but is denied by policy. Handlers turn it
// into a 401 reply.
type AuthorizationError struct {
	Author DID // empty for anonymous requesters
	Reason string
}

func (e AuthorizationError) Error() string {
	who := string(e.Author)
	if who == "" {
		who = "anonymous"
	}
	return fmt.Sprintf("dwn: %s failed authorization: %s", who, e.Reason)
}

func IsAuthorizationError(err error) bool {
	var ae AuthorizationError
	return errors.As(err, &ae)
}

// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

// Package auth is the authentication adapter: it verifies that a
// message's authorization resolves to a live signer identity. Anonymous
// messages never get here, whether they are acceptable is an
// authorization policy decision.
package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/dwnode/go-dwn"
)

// Authenticate resolves the signer DID to verification key material and
// checks the signature cryptographically. Every failure mode is an
// AuthenticationError; the integrity binding of authorization to
// descriptor is assumed to be validated already (parse boundary).
func Authenticate(ctx context.Context, authz *dwn.Authorization, resolver dwn.DIDResolver) error {
	if authz == nil {
		return dwn.AuthenticationError{Cause: errors.New("message has no authorization")}
	}

	pub, err := resolver.Resolve(ctx, authz.Signer)
	if err != nil {
		return dwn.AuthenticationError{Signer: authz.Signer, Cause: err}
	}

	if err := authz.Signature.Verify(authz.SigningInput(), pub); err != nil {
		return dwn.AuthenticationError{Signer: authz.Signer, Cause: err}
	}

	return nil
}

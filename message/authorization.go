// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package message

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/dwnode/go-dwn"
)

// SignDescriptor builds the detached authorization for a descriptor:
// the descriptor CID as payload, signed by the passed signer.
func SignDescriptor(d dwn.Descriptor, signer dwn.Signer) (*dwn.Authorization, error) {
	cid, err := d.Cid()
	if err != nil {
		return nil, err
	}

	authz := dwn.Authorization{
		PayloadCID: cid,
		Signer:     signer.DID(),
	}

	authz.Signature, err = signer.Sign(authz.SigningInput())
	if err != nil {
		return nil, errors.Wrap(err, "message: signing descriptor failed")
	}

	return &authz, nil
}

// ValidateIntegrity checks the structural binding of an authorization
// to its descriptor: the signed payload must be the descriptor's CID
// and the parts must be well formed. It performs no cryptography, that
// is the auth package's job.
func ValidateIntegrity(d dwn.Descriptor, authz dwn.Authorization) error {
	cid, err := d.Cid()
	if err != nil {
		return err
	}

	if !authz.PayloadCID.Equal(cid) {
		return dwn.Validationf("authorization payload %s does not match descriptor %s",
			authz.PayloadCID.ShortString(), cid.ShortString())
	}

	if _, err := dwn.ParseDID(string(authz.Signer)); err != nil {
		return dwn.Validationf("authorization carries invalid signer: %s", err)
	}

	if n := len(authz.Signature); n != ed25519.SignatureSize {
		return dwn.Validationf("authorization signature has %d bytes, expected %d", n, ed25519.SignatureSize)
	}

	return nil
}

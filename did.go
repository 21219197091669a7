// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package dwn

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrInvalidDID   = errors.New("dwn: invalid DID")
	ErrDIDNotFound  = errors.New("dwn: could not resolve DID to key material")
	ErrUnhandledDID = errors.New("dwn: unhandled DID method")
)

// DID is a decentralized identifier ("did:<method>:<identifier>").
// Tenants and message authors are DIDs.
type DID string

// ParseDID checks the three-part shape, it does not resolve anything.
func ParseDID(s string) (DID, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] != "did" || parts[1] == "" || parts[2] == "" {
		return "", errors.Wrapf(ErrInvalidDID, "got %q", s)
	}
	return DID(s), nil
}

func (d DID) Method() string {
	parts := strings.SplitN(string(d), ":", 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

func (d DID) String() string { return string(d) }

// DIDResolver turns a signer identity into verification key material.
// Consumed exclusively by the authentication adapter.
type DIDResolver interface {
	Resolve(ctx context.Context, did DID) (ed25519.PublicKey, error)
}

const methodDwnKey = "dwn"

// DIDForPublicKey derives the node-native self-certifying identifier
// for an ed25519 public key.
func DIDForPublicKey(pub ed25519.PublicKey) DID {
	return DID("did:" + methodDwnKey + ":" + base64.RawURLEncoding.EncodeToString(pub))
}

// KeyResolver resolves the self-certifying "did:dwn" method by decoding
// the key straight out of the identifier. It is the default resolver of
// a node, other methods plug in through node options.
type KeyResolver struct{}

func (KeyResolver) Resolve(_ context.Context, did DID) (ed25519.PublicKey, error) {
	if did.Method() != methodDwnKey {
		return nil, errors.Wrapf(ErrUnhandledDID, "method %q", did.Method())
	}

	idx := strings.LastIndex(string(did), ":")
	pub, err := base64.RawURLEncoding.DecodeString(string(did)[idx+1:])
	if err != nil {
		return nil, errors.Wrap(ErrDIDNotFound, err.Error())
	}
	if n := len(pub); n != ed25519.PublicKeySize {
		return nil, errors.Wrapf(ErrDIDNotFound, "expected key length %d, got %d", ed25519.PublicKeySize, n)
	}

	return ed25519.PublicKey(pub), nil
}

// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package dwn

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
)

var signatureSuffix = []byte(".sig.ed25519")

var ErrInvalidSig = errors.New("dwn: invalid signature")

// Signature is a detached ed25519 signature. On the wire it is a std
// base64 string with an algo suffix.
type Signature []byte

func NewSignatureFromBase64(input []byte) (Signature, error) {
	if !bytes.HasSuffix(input, signatureSuffix) {
		return nil, errors.New("dwn/signature: unexpected suffix")
	}
	b64 := bytes.TrimSuffix(input, signatureSuffix)

	// bound the input before decoding so an oversized string can't balloon memory
	gotLen := base64.StdEncoding.DecodedLen(len(b64))
	if gotLen < ed25519.SignatureSize {
		return nil, fmt.Errorf("dwn/signature: expected more signature data but only got %d", gotLen)
	}
	if gotLen > ed25519.SignatureSize+2 {
		return nil, fmt.Errorf("dwn/signature: expected less signature data but got a string that could decode to up to %d bytes", gotLen)
	}

	decoded := make([]byte, gotLen)
	n, err := base64.StdEncoding.Decode(decoded, b64)
	if err != nil {
		return nil, fmt.Errorf("dwn/signature: invalid base64 data: %w", err)
	}
	decoded = decoded[:n]

	if len(decoded) != ed25519.SignatureSize {
		return nil, fmt.Errorf("dwn/signature: decoded data is %d bytes long and should be %d", len(decoded), ed25519.SignatureSize)
	}

	return decoded, nil
}

// UnmarshalJSON turns a std base64 encoded string with the suffix into signature data
func (s *Signature) UnmarshalJSON(input []byte) error {
	if len(input) < 2 || !(input[0] == '"' && input[len(input)-1] == '"') {
		return errors.New("dwn/signature: not a string")
	}

	newSig, err := NewSignatureFromBase64(input[1 : len(input)-1])
	if err != nil {
		return err
	}

	*s = newSig
	return nil
}

// MarshalJSON turns the binary signature data into a base64 string with the suffix
func (s Signature) MarshalJSON() ([]byte, error) {
	dataLen := base64.StdEncoding.EncodedLen(len(s))
	totalLen := 2 + dataLen + len(signatureSuffix)

	enc := make([]byte, totalLen)
	enc[0] = '"'
	enc[totalLen-1] = '"'

	base64.StdEncoding.Encode(enc[1:1+dataLen], s)
	copy(enc[1+dataLen:], signatureSuffix)

	return enc, nil
}

func (s Signature) Verify(content []byte, pub ed25519.PublicKey) error {
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("dwn/signature: invalid public key length %d", len(pub))
	}

	if ed25519.Verify(pub, content, s) {
		return nil
	}

	return ErrInvalidSig
}

// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package dwn

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// KeyPair is a node or client identity: an ed25519 pair plus the DID
// derived from its public key. It implements Signer.
type KeyPair struct {
	Id     DID
	Public ed25519.PublicKey
	Secret ed25519.PrivateKey
}

var _ Signer = KeyPair{}

func (kp KeyPair) DID() DID { return kp.Id }

// Sign produces the detached signature over a signing input.
func (kp KeyPair) Sign(payload []byte) (Signature, error) {
	if len(kp.Secret) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("dwn: malformed secret key, got %d bytes", len(kp.Secret))
	}
	return Signature(ed25519.Sign(kp.Secret, payload)), nil
}

// NewKeyPair generates a fresh identity from the passed entropy source
// (crypto/rand if nil).
func NewKeyPair(r io.Reader) (*KeyPair, error) {
	pub, sec, err := ed25519.GenerateKey(r)
	if err != nil {
		return nil, errors.Wrap(err, "dwn: error building key pair")
	}

	return &KeyPair{
		Id:     DIDForPublicKey(pub),
		Public: pub,
		Secret: sec,
	}, nil
}

// the on-disk format of the secret file
type storedSecret struct {
	Curve   string `json:"curve"`
	ID      DID    `json:"id"`
	Private string `json:"private"`
	Public  string `json:"public"`
}

const keyAlgoSuffix = ".ed25519"

// SaveKeyPair serializes the keypair to path, refusing to overwrite and
// restricting the file to its owner.
func SaveKeyPair(kp *KeyPair, path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("dwn.SaveKeyPair: key file already exists: %q", path)
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "dwn.SaveKeyPair: failed to stat %q", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "dwn.SaveKeyPair: failed to create folder for keypair")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, SecretPerms)
	if err != nil {
		return errors.Wrap(err, "dwn.SaveKeyPair: failed to create file")
	}

	sec := storedSecret{
		Curve:   "ed25519",
		ID:      kp.Id,
		Private: base64.StdEncoding.EncodeToString(kp.Secret) + keyAlgoSuffix,
		Public:  base64.StdEncoding.EncodeToString(kp.Public) + keyAlgoSuffix,
	}
	if err := json.NewEncoder(f).Encode(sec); err != nil {
		return errors.Wrap(err, "dwn.SaveKeyPair: json encoding failed")
	}

	return errors.Wrap(f.Close(), "dwn.SaveKeyPair: failed to close file")
}

// LoadKeyPair reads the secret file at fname, rejecting group or world
// accessible files.
func LoadKeyPair(fname string) (*KeyPair, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "dwn.LoadKeyPair: could not open key file %s", fname)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "dwn.LoadKeyPair: could not stat key file %s", fname)
	}
	if perms := info.Mode().Perm(); perms&0077 != 0 {
		return nil, errors.Errorf("dwn.LoadKeyPair: expected key file permissions %s, got %s", SecretPerms, perms)
	}

	return ParseKeyPair(f)
}

// ParseKeyPair json decodes an object from the reader. It expects std
// base64 encoded data under the private and public fields.
func ParseKeyPair(r io.Reader) (*KeyPair, error) {
	var s storedSecret
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(err, "dwn.ParseKeyPair: JSON decoding failed")
	}

	if s.Curve != "ed25519" {
		return nil, errors.Errorf("dwn.ParseKeyPair: unsupported key algo: %s", s.Curve)
	}

	public, err := base64.StdEncoding.DecodeString(strings.TrimSuffix(s.Public, keyAlgoSuffix))
	if err != nil {
		return nil, errors.Wrap(err, "dwn.ParseKeyPair: base64 decode of public part failed")
	}
	if n := len(public); n != ed25519.PublicKeySize {
		return nil, errors.Errorf("dwn.ParseKeyPair: public key has %d bytes, expected %d", n, ed25519.PublicKeySize)
	}

	private, err := base64.StdEncoding.DecodeString(strings.TrimSuffix(s.Private, keyAlgoSuffix))
	if err != nil {
		return nil, errors.Wrap(err, "dwn.ParseKeyPair: base64 decode of private part failed")
	}
	if n := len(private); n != ed25519.PrivateKeySize {
		return nil, errors.Errorf("dwn.ParseKeyPair: private key has %d bytes, expected %d", n, ed25519.PrivateKeySize)
	}

	kp := KeyPair{
		Id:     s.ID,
		Public: ed25519.PublicKey(public),
		Secret: ed25519.PrivateKey(private),
	}
	if want := DIDForPublicKey(kp.Public); s.ID != want {
		return nil, errors.Errorf("dwn.ParseKeyPair: id %s does not match public key (expected %s)", s.ID, want)
	}
	return &kp, nil
}

// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package dwn

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"
)

// CidAlgoSHA256 is the only hash algorithm currently in use.
const CidAlgoSHA256 = "sha256"

var ErrInvalidCid = errors.New("dwn: invalid content identifier")

// Cid is a content identifier: the hash of a message's canonical
// serialized form, excluding its signature. Two structurally identical
// messages share a Cid regardless of who signed them.
type Cid struct {
	Hash []byte
	Algo string
}

// NewCidForContent hashes the passed canonical bytes.
func NewCidForContent(content []byte) Cid {
	h := sha256.Sum256(content)
	return Cid{Hash: h[:], Algo: CidAlgoSHA256}
}

// ParseCid parses the "<base64>.<algo>" string form.
func ParseCid(s string) (Cid, error) {
	i := strings.LastIndex(s, ".")
	if i < 1 {
		return Cid{}, errors.Wrapf(ErrInvalidCid, "no algo suffix in %q", s)
	}

	algo := s[i+1:]
	if algo != CidAlgoSHA256 {
		return Cid{}, errors.Wrapf(ErrInvalidCid, "unknown hash algorithm %q", algo)
	}

	hash, err := base64.StdEncoding.DecodeString(s[:i])
	if err != nil {
		return Cid{}, errors.Wrap(ErrInvalidCid, err.Error())
	}
	if n := len(hash); n != sha256.Size {
		return Cid{}, errors.Wrapf(ErrInvalidCid, "expected hash length %d, got %d", sha256.Size, n)
	}

	return Cid{Hash: hash, Algo: algo}, nil
}

func (c Cid) IsZero() bool {
	return len(c.Hash) == 0
}

func (c Cid) Equal(other Cid) bool {
	return c.Algo == other.Algo && bytes.Equal(c.Hash, other.Hash)
}

func (c Cid) String() string {
	return base64.StdEncoding.EncodeToString(c.Hash) + "." + c.Algo
}

// ShortString is for logging.
func (c Cid) ShortString() string {
	if c.IsZero() {
		return "<zero>"
	}
	return base64.StdEncoding.EncodeToString(c.Hash[:3]) + "." + c.Algo
}

func (c Cid) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cid) UnmarshalText(input []byte) error {
	parsed, err := ParseCid(string(input))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CompareCids orders two Cids as opaque byte values. Used as the
// deterministic tie-break when message timestamps are equal, so all
// replicas converge on the same winner.
func CompareCids(a, b Cid) int {
	if c := strings.Compare(a.Algo, b.Algo); c != 0 {
		return c
	}
	return bytes.Compare(a.Hash, b.Hash)
}

// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package dwn

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"
)

// Message interfaces and methods. The pair tags a descriptor and decides
// which handler processes the message.
const (
	InterfaceRecords   = "Records"
	InterfaceProtocols = "Protocols"

	MethodRead      = "Read"
	MethodQuery     = "Query"
	MethodWrite     = "Write"
	MethodDelete    = "Delete"
	MethodConfigure = "Configure"
)

// TimestampFormat is the encoding of descriptor timestamps. History
// resolution orders by this field, so it keeps nanoseconds.
const TimestampFormat = time.RFC3339Nano

// Now returns the current time in the descriptor timestamp encoding.
func Now() string {
	return time.Now().UTC().Format(TimestampFormat)
}

// ParseTimestamp decodes a descriptor timestamp.
func ParseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(TimestampFormat, ts)
	return t, errors.Wrapf(err, "dwn: invalid message timestamp %q", ts)
}

// Descriptor is the typed, interface/method-tagged body of a message.
// Which of the optional fields must be present depends on the
// (interface, method) pair, the message package enforces that at the
// parse boundary.
type Descriptor struct {
	Interface string `json:"interface"`
	Method    string `json:"method"`

	RecordID         string `json:"recordId,omitempty"`
	MessageTimestamp string `json:"messageTimestamp,omitempty"`

	DataCID    *Cid   `json:"dataCid,omitempty"`
	DataFormat string `json:"dataFormat,omitempty"`
	Published  *bool  `json:"published,omitempty"`
	Protocol   string `json:"protocol,omitempty"`

	// Protocols-Query
	Filter Filter `json:"filter,omitempty"`

	// Protocols-Configure
	Definition json.RawMessage `json:"definition,omitempty"`
}

// Canonical returns the deterministic serialized form of the descriptor.
// Signatures are computed over it and the message CID is derived from
// it, so it never includes authorization material.
func (d Descriptor) Canonical() ([]byte, error) {
	b, err := json.Marshal(d)
	return b, errors.Wrap(err, "dwn: could not canonicalize descriptor")
}

// Cid hashes the canonical form. Re-signing the same descriptor never
// changes its Cid.
func (d Descriptor) Cid() (Cid, error) {
	canonical, err := d.Canonical()
	if err != nil {
		return Cid{}, err
	}
	return NewCidForContent(canonical), nil
}

// Authorization is the detached signature object attached to a signed
// message. PayloadCID binds it to one exact descriptor; no field of it
// may be trusted before that binding was validated.
type Authorization struct {
	PayloadCID Cid       `json:"payloadCid"`
	Signer     DID       `json:"signer"`
	Signature  Signature `json:"signature"`
}

// SigningInput is what the signature actually covers: the string form
// of the descriptor CID.
func (a Authorization) SigningInput() []byte {
	return []byte(a.PayloadCID.String())
}

// RawMessage is the wire form of a message as the transport layer hands
// it to a handler: an unparsed descriptor plus the optional signature.
// Data is the out-of-band payload stream accompanying a RecordsWrite,
// it is never part of the signed envelope.
type RawMessage struct {
	Descriptor    json.RawMessage `json:"descriptor"`
	Authorization *Authorization  `json:"authorization,omitempty"`

	Data io.Reader `json:"-"`
}

// StoredMessage is a persisted message envelope: the parsed descriptor
// with its authorization, excluding any payload. Immutable once stored.
// Tenant records whose node the message was accepted into, so indexes
// can be rebuilt from persisted envelopes alone.
type StoredMessage struct {
	Tenant        DID            `json:"tenant"`
	Descriptor    Descriptor     `json:"descriptor"`
	Authorization *Authorization `json:"authorization,omitempty"`
}

// Cid is the message's content identifier (descriptor only).
func (m StoredMessage) Cid() (Cid, error) {
	return m.Descriptor.Cid()
}

// Author is the signer identity, or empty for anonymous messages. Only
// meaningful after integrity validation and authentication.
func (m StoredMessage) Author() DID {
	if m.Authorization == nil {
		return ""
	}
	return m.Authorization.Signer
}

// QueryResultEntry is a persisted message with its authorization
// stripped. Signatures are for verification, not for re-exposure, so
// this is the only shape entries leave the storage boundary in.
type QueryResultEntry struct {
	Descriptor Descriptor `json:"descriptor"`
}

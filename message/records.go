// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package message

import (
	"github.com/dwnode/go-dwn"
)

// RecordsRead asks for the payload of a single logical record.
type RecordsRead struct {
	msg dwn.StoredMessage
}

func (rr RecordsRead) Message() dwn.StoredMessage { return rr.msg }
func (rr RecordsRead) Author() dwn.DID            { return rr.msg.Author() }
func (rr RecordsRead) RecordID() string           { return rr.msg.Descriptor.RecordID }

// ParseRecordsRead validates raw as a RecordsRead. The authorization is
// optional, anonymous reads are decided by policy, not here.
func ParseRecordsRead(raw dwn.RawMessage) (*RecordsRead, error) {
	msg, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if err := requireVariant(msg, dwn.InterfaceRecords, dwn.MethodRead); err != nil {
		return nil, err
	}
	if msg.Descriptor.RecordID == "" {
		return nil, dwn.Validationf("RecordsRead descriptor missing recordId")
	}
	return &RecordsRead{msg: msg}, nil
}

type RecordsReadOptions struct {
	RecordID         string
	MessageTimestamp string // defaults to now
	Signer           dwn.Signer
}

// CreateRecordsRead builds a fresh RecordsRead and runs it through the
// parse path before returning it.
func CreateRecordsRead(opts RecordsReadOptions) (*RecordsRead, error) {
	d := dwn.Descriptor{
		Interface:        dwn.InterfaceRecords,
		Method:           dwn.MethodRead,
		RecordID:         opts.RecordID,
		MessageTimestamp: opts.MessageTimestamp,
	}
	if d.MessageTimestamp == "" {
		d.MessageTimestamp = dwn.Now()
	}

	raw, err := signedRaw(d, opts.Signer)
	if err != nil {
		return nil, err
	}
	return ParseRecordsRead(raw)
}

// RecordsWrite creates or updates a logical record.
type RecordsWrite struct {
	msg dwn.StoredMessage
}

func (rw RecordsWrite) Message() dwn.StoredMessage { return rw.msg }
func (rw RecordsWrite) Author() dwn.DID            { return rw.msg.Author() }
func (rw RecordsWrite) RecordID() string           { return rw.msg.Descriptor.RecordID }
func (rw RecordsWrite) DataCID() dwn.Cid {
	if rw.msg.Descriptor.DataCID == nil {
		return dwn.Cid{}
	}
	return *rw.msg.Descriptor.DataCID
}

// Published is the strict boolean gate the published-access policy
// checks: absent counts as false, never as published.
func (rw RecordsWrite) Published() bool {
	return rw.msg.Descriptor.Published != nil && *rw.msg.Descriptor.Published
}

// ParseRecordsWrite validates raw as a RecordsWrite. Writes always
// require an authorization.
func ParseRecordsWrite(raw dwn.RawMessage) (*RecordsWrite, error) {
	msg, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if err := requireVariant(msg, dwn.InterfaceRecords, dwn.MethodWrite); err != nil {
		return nil, err
	}
	if err := requireSigned(msg); err != nil {
		return nil, err
	}

	d := msg.Descriptor
	if d.RecordID == "" {
		return nil, dwn.Validationf("RecordsWrite descriptor missing recordId")
	}
	if d.DataCID == nil || d.DataCID.IsZero() {
		return nil, dwn.Validationf("RecordsWrite descriptor missing dataCid")
	}
	if d.DataFormat == "" {
		return nil, dwn.Validationf("RecordsWrite descriptor missing dataFormat")
	}

	return &RecordsWrite{msg: msg}, nil
}

type RecordsWriteOptions struct {
	RecordID         string
	MessageTimestamp string // defaults to now
	DataCID          dwn.Cid
	DataFormat       string
	Published        *bool
	Protocol         string
	Signer           dwn.Signer // required
}

func CreateRecordsWrite(opts RecordsWriteOptions) (*RecordsWrite, error) {
	d := dwn.Descriptor{
		Interface:        dwn.InterfaceRecords,
		Method:           dwn.MethodWrite,
		RecordID:         opts.RecordID,
		MessageTimestamp: opts.MessageTimestamp,
		DataFormat:       opts.DataFormat,
		Published:        opts.Published,
		Protocol:         opts.Protocol,
	}
	if !opts.DataCID.IsZero() {
		d.DataCID = &opts.DataCID
	}
	if d.MessageTimestamp == "" {
		d.MessageTimestamp = dwn.Now()
	}

	raw, err := signedRaw(d, opts.Signer)
	if err != nil {
		return nil, err
	}
	return ParseRecordsWrite(raw)
}

// RecordsDelete is the tombstone: it terminates a record's history for
// read purposes without destroying it.
type RecordsDelete struct {
	msg dwn.StoredMessage
}

func (rd RecordsDelete) Message() dwn.StoredMessage { return rd.msg }
func (rd RecordsDelete) Author() dwn.DID            { return rd.msg.Author() }
func (rd RecordsDelete) RecordID() string           { return rd.msg.Descriptor.RecordID }

func ParseRecordsDelete(raw dwn.RawMessage) (*RecordsDelete, error) {
	msg, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if err := requireVariant(msg, dwn.InterfaceRecords, dwn.MethodDelete); err != nil {
		return nil, err
	}
	if err := requireSigned(msg); err != nil {
		return nil, err
	}
	if msg.Descriptor.RecordID == "" {
		return nil, dwn.Validationf("RecordsDelete descriptor missing recordId")
	}
	return &RecordsDelete{msg: msg}, nil
}

type RecordsDeleteOptions struct {
	RecordID         string
	MessageTimestamp string // defaults to now
	Signer           dwn.Signer // required
}

func CreateRecordsDelete(opts RecordsDeleteOptions) (*RecordsDelete, error) {
	d := dwn.Descriptor{
		Interface:        dwn.InterfaceRecords,
		Method:           dwn.MethodDelete,
		RecordID:         opts.RecordID,
		MessageTimestamp: opts.MessageTimestamp,
	}
	if d.MessageTimestamp == "" {
		d.MessageTimestamp = dwn.Now()
	}

	raw, err := signedRaw(d, opts.Signer)
	if err != nil {
		return nil, err
	}
	return ParseRecordsDelete(raw)
}

func signedRaw(d dwn.Descriptor, signer dwn.Signer) (dwn.RawMessage, error) {
	var authz *dwn.Authorization
	if signer != nil {
		var err error
		authz, err = SignDescriptor(d, signer)
		if err != nil {
			return dwn.RawMessage{}, err
		}
	}
	return rawFor(d, authz)
}

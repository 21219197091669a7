// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package message

import (
	"encoding/json"

	"github.com/dwnode/go-dwn"
)

// ProtocolsQuery lists the protocol definitions configured on a node.
type ProtocolsQuery struct {
	msg dwn.StoredMessage
}

func (pq ProtocolsQuery) Message() dwn.StoredMessage { return pq.msg }
func (pq ProtocolsQuery) Author() dwn.DID            { return pq.msg.Author() }

// Filter returns the caller-supplied equality filter with the
// discriminant keys removed, so a query cannot escape the
// ProtocolsConfigure subset.
func (pq ProtocolsQuery) Filter() dwn.Filter {
	out := dwn.Filter{}
	for k, v := range pq.msg.Descriptor.Filter {
		if k == "interface" || k == "method" {
			continue
		}
		out[k] = v
	}
	return out
}

func ParseProtocolsQuery(raw dwn.RawMessage) (*ProtocolsQuery, error) {
	msg, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if err := requireVariant(msg, dwn.InterfaceProtocols, dwn.MethodQuery); err != nil {
		return nil, err
	}
	return &ProtocolsQuery{msg: msg}, nil
}

type ProtocolsQueryOptions struct {
	Filter           dwn.Filter
	MessageTimestamp string // defaults to now
	Signer           dwn.Signer
}

func CreateProtocolsQuery(opts ProtocolsQueryOptions) (*ProtocolsQuery, error) {
	d := dwn.Descriptor{
		Interface:        dwn.InterfaceProtocols,
		Method:           dwn.MethodQuery,
		MessageTimestamp: opts.MessageTimestamp,
		Filter:           opts.Filter,
	}
	if d.MessageTimestamp == "" {
		d.MessageTimestamp = dwn.Now()
	}

	raw, err := signedRaw(d, opts.Signer)
	if err != nil {
		return nil, err
	}
	return ParseProtocolsQuery(raw)
}

// ProtocolsConfigure installs or replaces a protocol definition.
type ProtocolsConfigure struct {
	msg dwn.StoredMessage
}

func (pc ProtocolsConfigure) Message() dwn.StoredMessage { return pc.msg }
func (pc ProtocolsConfigure) Author() dwn.DID            { return pc.msg.Author() }
func (pc ProtocolsConfigure) Protocol() string           { return pc.msg.Descriptor.Protocol }

func ParseProtocolsConfigure(raw dwn.RawMessage) (*ProtocolsConfigure, error) {
	msg, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if err := requireVariant(msg, dwn.InterfaceProtocols, dwn.MethodConfigure); err != nil {
		return nil, err
	}
	if err := requireSigned(msg); err != nil {
		return nil, err
	}

	d := msg.Descriptor
	if d.Protocol == "" {
		return nil, dwn.Validationf("ProtocolsConfigure descriptor missing protocol")
	}
	if len(d.Definition) == 0 {
		return nil, dwn.Validationf("ProtocolsConfigure descriptor missing definition")
	}
	if !json.Valid(d.Definition) {
		return nil, dwn.Validationf("ProtocolsConfigure definition is not valid JSON")
	}

	return &ProtocolsConfigure{msg: msg}, nil
}

type ProtocolsConfigureOptions struct {
	Protocol         string
	Definition       json.RawMessage
	MessageTimestamp string     // defaults to now
	Signer           dwn.Signer // required
}

func CreateProtocolsConfigure(opts ProtocolsConfigureOptions) (*ProtocolsConfigure, error) {
	d := dwn.Descriptor{
		Interface:        dwn.InterfaceProtocols,
		Method:           dwn.MethodConfigure,
		MessageTimestamp: opts.MessageTimestamp,
		Protocol:         opts.Protocol,
		Definition:       opts.Definition,
	}
	if d.MessageTimestamp == "" {
		d.MessageTimestamp = dwn.Now()
	}

	raw, err := signedRaw(d, opts.Signer)
	if err != nil {
		return nil, err
	}
	return ParseProtocolsConfigure(raw)
}

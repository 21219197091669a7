// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

// Package message turns loosely-typed inbound objects into
// strongly-typed, integrity-checked messages of a specific
// (interface, method) variant, and builds fresh ones on the create
// path. Anything Create emits, Parse accepts.
package message

import (
	"encoding/json"

	"github.com/dwnode/go-dwn"
)

// parseEnvelope does the validation shared by all variants: decode the
// descriptor, check the discriminant is present and, if an
// authorization is attached, check its integrity binding. All or
// nothing, no partially validated message ever leaves this function.
func parseEnvelope(raw dwn.RawMessage) (dwn.StoredMessage, error) {
	var msg dwn.StoredMessage

	if len(raw.Descriptor) == 0 {
		return msg, dwn.Validationf("missing descriptor")
	}

	var d dwn.Descriptor
	if err := json.Unmarshal(raw.Descriptor, &d); err != nil {
		return msg, dwn.Validationf("undecodable descriptor: %s", err)
	}

	if d.Interface == "" || d.Method == "" {
		return msg, dwn.Validationf("descriptor missing interface or method tag")
	}

	if d.MessageTimestamp == "" {
		return msg, dwn.Validationf("descriptor missing messageTimestamp")
	}
	if _, err := dwn.ParseTimestamp(d.MessageTimestamp); err != nil {
		return msg, dwn.Validationf("%s", err)
	}

	msg.Descriptor = d
	msg.Authorization = raw.Authorization

	if raw.Authorization != nil {
		if err := ValidateIntegrity(d, *raw.Authorization); err != nil {
			return dwn.StoredMessage{}, err
		}
	}

	return msg, nil
}

func requireSigned(msg dwn.StoredMessage) error {
	if msg.Authorization == nil {
		return dwn.Validationf("%s%s requires authorization", msg.Descriptor.Interface, msg.Descriptor.Method)
	}
	return nil
}

func requireVariant(msg dwn.StoredMessage, iface, method string) error {
	d := msg.Descriptor
	if d.Interface != iface || d.Method != method {
		return dwn.Validationf("expected %s%s message, got %s%s", iface, method, d.Interface, d.Method)
	}
	return nil
}

// rawFor re-encodes a freshly built descriptor so the create path runs
// through the exact same validation as the parse path.
func rawFor(d dwn.Descriptor, authz *dwn.Authorization) (dwn.RawMessage, error) {
	canonical, err := d.Canonical()
	if err != nil {
		return dwn.RawMessage{}, err
	}
	return dwn.RawMessage{Descriptor: canonical, Authorization: authz}, nil
}

// StripAuthorization projects a persisted message to its public view.
// Applied uniformly wherever entries leave the storage boundary.
func StripAuthorization(m *dwn.StoredMessage) dwn.QueryResultEntry {
	return dwn.QueryResultEntry{Descriptor: m.Descriptor}
}

// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

// Package authorize decides whether a requester may perform an action
// against the current resolved state of a record. Exactly one outcome
// applies per request: authorized or denied, policies never partially
// authorize.
package authorize

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/dwnode/go-dwn"
	"github.com/dwnode/go-dwn/message"
)

// Request is everything a policy may look at: the tenant owning the
// target, the authenticated author (empty for anonymous requesters) and
// the record's current winning write as resolved by history resolution.
type Request struct {
	Tenant dwn.DID
	Author dwn.DID
	Newest *dwn.StoredMessage
}

// Policy is one authorization strategy. Implementations return an
// AuthorizationError to deny.
type Policy interface {
	Authorize(ctx context.Context, req Request) error
}

// OwnerOnly grants access iff the author is the tenant itself. Used for
// direct node-owner access.
type OwnerOnly struct{}

func (OwnerOnly) Authorize(_ context.Context, req Request) error {
	if req.Author == "" {
		return dwn.AuthorizationError{Reason: "anonymous access denied"}
	}
	if req.Author != req.Tenant {
		return dwn.AuthorizationError{Author: req.Author, Reason: "not the tenant"}
	}
	return nil
}

// Published grants anonymous or any authenticated access iff the
// resolved record's winning write is published. The check is strict
// boolean equality: an absent flag is never published. Everything else
// falls through to the Fallback policy (OwnerOnly when unset).
type Published struct {
	Fallback Policy
}

func (p Published) Authorize(ctx context.Context, req Request) error {
	if isPublished(req.Newest) {
		return nil
	}

	fallback := p.Fallback
	if fallback == nil {
		fallback = OwnerOnly{}
	}
	return fallback.Authorize(ctx, req)
}

func isPublished(m *dwn.StoredMessage) bool {
	if m == nil || m.Descriptor.Method != dwn.MethodWrite {
		return false
	}
	return m.Descriptor.Published != nil && *m.Descriptor.Published
}

// ProtocolRules authorizes through the declarative rules of the
// protocol definition the record belongs to, looked up via the message
// store. Only the anyone-can-read rule is evaluated here, the rest of
// rule evaluation is the extension point of this package.
type ProtocolRules struct {
	Store dwn.MessageStore

	// Fallback handles records outside any protocol (OwnerOnly when
	// unset).
	Fallback Policy
}

// the evaluated subset of a protocol definition
type protocolDefinition struct {
	Published bool `json:"published"`
}

func (p ProtocolRules) Authorize(ctx context.Context, req Request) error {
	fallback := p.Fallback
	if fallback == nil {
		fallback = OwnerOnly{}
	}

	if req.Newest == nil || req.Newest.Descriptor.Protocol == "" {
		return fallback.Authorize(ctx, req)
	}

	configures, err := p.Store.Query(ctx, req.Tenant, dwn.Filter{
		"interface": dwn.InterfaceProtocols,
		"method":    dwn.MethodConfigure,
		"protocol":  req.Newest.Descriptor.Protocol,
	})
	if err != nil {
		return errors.Wrap(err, "authorize: protocol definition lookup failed")
	}

	newest, err := message.Newest(configures)
	if err != nil {
		return errors.Wrap(err, "authorize: resolving protocol configuration failed")
	}
	if newest == nil {
		return dwn.AuthorizationError{Author: req.Author, Reason: "record protocol is not configured on this node"}
	}

	var def protocolDefinition
	if err := json.Unmarshal(newest.Descriptor.Definition, &def); err != nil {
		return errors.Wrap(err, "authorize: undecodable protocol definition")
	}

	if def.Published {
		return nil
	}
	return fallback.Authorize(ctx, req)
}

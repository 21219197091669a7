// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

// Package protocols implements the method handlers of the Protocols
// interface: installing protocol definitions and listing them.
package protocols

import (
	"context"

	kitlog "go.mindeco.de/log"
	"go.mindeco.de/log/level"

	"github.com/dwnode/go-dwn"
	"github.com/dwnode/go-dwn/auth"
	"github.com/dwnode/go-dwn/authorize"
	"github.com/dwnode/go-dwn/handlers"
	"github.com/dwnode/go-dwn/message"
	"github.com/dwnode/go-dwn/storage"
)

// QueryHandler lists the protocol definitions configured on the node.
type QueryHandler struct {
	Store    *storage.Controller
	Resolver dwn.DIDResolver
	Logger   kitlog.Logger
}

var _ dwn.MethodHandler = (*QueryHandler)(nil)

func (h *QueryHandler) Handle(ctx context.Context, tenant dwn.DID, raw dwn.RawMessage) *dwn.MessageReply {
	pq, err := message.ParseProtocolsQuery(raw)
	if err != nil {
		return handlers.ReplyForError(err)
	}

	if err := auth.Authenticate(ctx, pq.Message().Authorization, h.Resolver); err != nil {
		return handlers.ReplyForError(err)
	}

	err = (authorize.OwnerOnly{}).Authorize(ctx, authorize.Request{
		Tenant: tenant,
		Author: pq.Author(),
	})
	if err != nil {
		return handlers.ReplyForError(err)
	}

	filter := pq.Filter()
	filter["interface"] = dwn.InterfaceProtocols
	filter["method"] = dwn.MethodConfigure

	found, err := h.Store.QueryMessages(ctx, tenant, filter)
	if err != nil {
		level.Error(h.Logger).Log("handler", "protocols.query", "err", err)
		return handlers.ReplyForError(err)
	}

	// entries leave the node without their signatures
	entries := make([]dwn.QueryResultEntry, len(found))
	for i, m := range found {
		entries[i] = message.StripAuthorization(m)
	}

	return dwn.NewEntriesReply(dwn.StatusOK, "OK", entries)
}

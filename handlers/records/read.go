// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

// Package records implements the method handlers of the Records
// interface: Read, Write and Delete over logical record histories.
package records

import (
	"context"

	"github.com/pkg/errors"
	kitlog "go.mindeco.de/log"
	"go.mindeco.de/log/level"

	"github.com/dwnode/go-dwn"
	"github.com/dwnode/go-dwn/auth"
	"github.com/dwnode/go-dwn/authorize"
	"github.com/dwnode/go-dwn/handlers"
	"github.com/dwnode/go-dwn/message"
	"github.com/dwnode/go-dwn/storage"
)

// ReadHandler serves the payload of a record's winning write.
type ReadHandler struct {
	Store    *storage.Controller
	Resolver dwn.DIDResolver
	Policy   authorize.Policy
	Logger   kitlog.Logger
}

var _ dwn.MethodHandler = (*ReadHandler)(nil)

func (h *ReadHandler) Handle(ctx context.Context, tenant dwn.DID, raw dwn.RawMessage) *dwn.MessageReply {
	rr, err := message.ParseRecordsRead(raw)
	if err != nil {
		return handlers.ReplyForError(err)
	}

	// anonymous reads skip authentication, policy decides their fate
	var author dwn.DID
	if authz := rr.Message().Authorization; authz != nil {
		if err := auth.Authenticate(ctx, authz, h.Resolver); err != nil {
			return handlers.ReplyForError(err)
		}
		author = rr.Author()
	}

	history, err := handlers.RecordHistory(ctx, h.Store, tenant, rr.RecordID())
	if err != nil {
		level.Error(h.Logger).Log("handler", "records.read", "err", err)
		return handlers.ReplyForError(err)
	}

	newest, err := message.Newest(history)
	if err != nil {
		return handlers.ReplyForError(err)
	}
	if newest == nil || message.IsTombstone(newest) {
		return dwn.NewStatusReply(dwn.StatusNotFound, "record not found")
	}

	err = h.Policy.Authorize(ctx, authorize.Request{
		Tenant: tenant,
		Author: author,
		Newest: newest,
	})
	if err != nil {
		return handlers.ReplyForError(err)
	}

	if newest.Descriptor.DataCID == nil {
		return dwn.NewStatusReply(dwn.StatusNotFound, "record has no data")
	}

	mcid, err := newest.Cid()
	if err != nil {
		return handlers.ReplyForError(err)
	}

	data, err := h.Store.GetData(ctx, tenant, mcid, *newest.Descriptor.DataCID)
	if err != nil {
		if errors.Is(err, dwn.ErrNoSuchBlob) {
			return dwn.NewStatusReply(dwn.StatusNotFound, "record data not found")
		}
		level.Error(h.Logger).Log("handler", "records.read", "err", err)
		return handlers.ReplyForError(err)
	}

	return dwn.NewDataReply(dwn.StatusOK, "OK", data)
}

// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package records

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

// DeleteHandler appends a tombstone to a record's history and drops the
// payloads of its prior writes. The envelopes themselves stay, history
// is never destroyed.
type DeleteHandler struct {
	Store    *storage.Controller
	Resolver dwn.DIDResolver
	Logger   kitlog.Logger
}

var _ dwn.MethodHandler = (*DeleteHandler)(nil)

func (h *DeleteHandler) Handle(ctx context.Context, tenant dwn.DID, raw dwn.RawMessage) *dwn.MessageReply {
	rd, err := message.ParseRecordsDelete(raw)
	if err != nil {
		return handlers.ReplyForError(err)
	}

	if err := auth.Authenticate(ctx, rd.Message().Authorization, h.Resolver); err != nil {
		return handlers.ReplyForError(err)
	}

	err = (authorize.OwnerOnly{}).Authorize(ctx, authorize.Request{
		Tenant: tenant,
		Author: rd.Author(),
	})
	if err != nil {
		return handlers.ReplyForError(err)
	}

	history, err := handlers.RecordHistory(ctx, h.Store, tenant, rd.RecordID())
	if err != nil {
		level.Error(h.Logger).Log("handler", "records.delete", "err", err)
		return handlers.ReplyForError(err)
	}

	newest, err := message.Newest(history)
	if err != nil {
		return handlers.ReplyForError(err)
	}
	if newest == nil || message.IsTombstone(newest) {
		return dwn.NewStatusReply(dwn.StatusNotFound, "record not found")
	}

	stored := rd.Message()
	wins, err := message.WouldWin(stored, newest)
	if err != nil {
		return handlers.ReplyForError(err)
	}
	if !wins {
		return dwn.NewStatusReply(dwn.StatusBadRequest, "delete is older than the record's newest entry")
	}

	if err := h.Store.PutMessage(ctx, tenant, &stored); err != nil {
		level.Error(h.Logger).Log("handler", "records.delete", "err", err)
		return handlers.ReplyForError(err)
	}

	// the record is gone for readers, release its payloads
	for _, m := range history {
		if m.Descriptor.Method != dwn.MethodWrite {
			continue
		}
		mcid, err := m.Cid()
		if err != nil {
			continue
		}
		if err := h.Store.DeleteData(ctx, tenant, mcid); err != nil {
			level.Warn(h.Logger).Log("handler", "records.delete", "msg", "payload cleanup failed", "err", err)
		}
	}

	return dwn.NewStatusReply(dwn.StatusOK, "OK")
}

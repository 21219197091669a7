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

// WriteHandler persists a record write and its payload. Writing is a
// tenant-owner operation regardless of the configured read policy.
type WriteHandler struct {
	Store    *storage.Controller
	Resolver dwn.DIDResolver
	Logger   kitlog.Logger
}

var _ dwn.MethodHandler = (*WriteHandler)(nil)

func (h *WriteHandler) Handle(ctx context.Context, tenant dwn.DID, raw dwn.RawMessage) *dwn.MessageReply {
	rw, err := message.ParseRecordsWrite(raw)
	if err != nil {
		return handlers.ReplyForError(err)
	}

	if err := auth.Authenticate(ctx, rw.Message().Authorization, h.Resolver); err != nil {
		return handlers.ReplyForError(err)
	}

	err = (authorize.OwnerOnly{}).Authorize(ctx, authorize.Request{
		Tenant: tenant,
		Author: rw.Author(),
	})
	if err != nil {
		return handlers.ReplyForError(err)
	}

	history, err := handlers.RecordHistory(ctx, h.Store, tenant, rw.RecordID())
	if err != nil {
		level.Error(h.Logger).Log("handler", "records.write", "err", err)
		return handlers.ReplyForError(err)
	}

	newest, err := message.Newest(history)
	if err != nil {
		return handlers.ReplyForError(err)
	}
	if newest != nil {
		if message.IsTombstone(newest) {
			return dwn.NewStatusReply(dwn.StatusBadRequest, "record is deleted")
		}
		wins, err := message.WouldWin(rw.Message(), newest)
		if err != nil {
			return handlers.ReplyForError(err)
		}
		if !wins {
			return dwn.NewStatusReply(dwn.StatusBadRequest, "message is older than the record's newest entry")
		}
	}

	stored := rw.Message()
	mcid, err := stored.Cid()
	if err != nil {
		return handlers.ReplyForError(err)
	}

	if raw.Data != nil {
		dataCid, _, err := h.Store.PutData(ctx, tenant, mcid, raw.Data)
		if err != nil {
			level.Error(h.Logger).Log("handler", "records.write", "err", err)
			return handlers.ReplyForError(err)
		}
		if !dataCid.Equal(rw.DataCID()) {
			if delErr := h.Store.DeleteData(ctx, tenant, mcid); delErr != nil {
				level.Warn(h.Logger).Log("handler", "records.write", "msg", "orphaned payload", "err", delErr)
			}
			return dwn.NewStatusReply(dwn.StatusBadRequest, "data stream does not match the declared dataCid")
		}
	} else {
		// a data-less update must keep the payload of the current
		// winning write
		if err := h.carryForwardData(ctx, tenant, newest, rw, mcid); err != nil {
			return handlers.ReplyForError(err)
		}
	}

	if err := h.Store.PutMessage(ctx, tenant, &stored); err != nil {
		level.Error(h.Logger).Log("handler", "records.write", "err", err)
		return handlers.ReplyForError(err)
	}

	return dwn.NewStatusReply(dwn.StatusOK, "OK")
}

func (h *WriteHandler) carryForwardData(ctx context.Context, tenant dwn.DID, newest *dwn.StoredMessage, rw *message.RecordsWrite, mcid dwn.Cid) error {
	if newest == nil || newest.Descriptor.DataCID == nil {
		return dwn.Validationf("initial RecordsWrite requires a data stream")
	}
	if !newest.Descriptor.DataCID.Equal(rw.DataCID()) {
		return dwn.Validationf("dataCid changed but no data stream was provided")
	}

	prevCid, err := newest.Cid()
	if err != nil {
		return err
	}
	data, err := h.Store.GetData(ctx, tenant, prevCid, rw.DataCID())
	if err != nil {
		return dwn.Validationf("referenced data is not available")
	}
	defer data.Close()

	if _, _, err := h.Store.PutData(ctx, tenant, mcid, data); err != nil {
		return err
	}
	return nil
}

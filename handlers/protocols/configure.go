// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

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

// ConfigureHandler installs a protocol definition. Reconfiguring an
// existing protocol follows newest-wins, superseded definitions are
// removed from the index.
type ConfigureHandler struct {
	Store    *storage.Controller
	Resolver dwn.DIDResolver
	Logger   kitlog.Logger
}

var _ dwn.MethodHandler = (*ConfigureHandler)(nil)

func (h *ConfigureHandler) Handle(ctx context.Context, tenant dwn.DID, raw dwn.RawMessage) *dwn.MessageReply {
	pc, err := message.ParseProtocolsConfigure(raw)
	if err != nil {
		return handlers.ReplyForError(err)
	}

	if err := auth.Authenticate(ctx, pc.Message().Authorization, h.Resolver); err != nil {
		return handlers.ReplyForError(err)
	}

	err = (authorize.OwnerOnly{}).Authorize(ctx, authorize.Request{
		Tenant: tenant,
		Author: pc.Author(),
	})
	if err != nil {
		return handlers.ReplyForError(err)
	}

	existing, err := h.Store.QueryMessages(ctx, tenant, dwn.Filter{
		"interface": dwn.InterfaceProtocols,
		"method":    dwn.MethodConfigure,
		"protocol":  pc.Protocol(),
	})
	if err != nil {
		level.Error(h.Logger).Log("handler", "protocols.configure", "err", err)
		return handlers.ReplyForError(err)
	}

	newest, err := message.Newest(existing)
	if err != nil {
		return handlers.ReplyForError(err)
	}

	stored := pc.Message()
	wins, err := message.WouldWin(stored, newest)
	if err != nil {
		return handlers.ReplyForError(err)
	}
	if !wins {
		return dwn.NewStatusReply(dwn.StatusBadRequest, "an equal or newer configuration for this protocol exists")
	}

	if err := h.Store.PutMessage(ctx, tenant, &stored); err != nil {
		level.Error(h.Logger).Log("handler", "protocols.configure", "err", err)
		return handlers.ReplyForError(err)
	}

	for _, m := range existing {
		mcid, err := m.Cid()
		if err != nil {
			continue
		}
		if err := h.Store.DeleteMessage(ctx, tenant, mcid); err != nil {
			level.Warn(h.Logger).Log("handler", "protocols.configure", "msg", "superseded definition cleanup failed", "err", err)
		}
	}

	return dwn.NewStatusReply(dwn.StatusOK, "OK")
}

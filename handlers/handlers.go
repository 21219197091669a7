// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

// Package handlers holds what the method handler packages share: the
// error-to-status mapping and record history lookup. A handler never
// returns an error, every failure becomes a reply.
package handlers

import (
	"context"

	"github.com/dwnode/go-dwn"
	"github.com/dwnode/go-dwn/storage"
)

// ReplyForError classifies a pipeline failure into the reply status it
// maps to: validation failures are the requester's fault (400),
// identity failures are unauthorized (401), anything else is reported
// as a bad request since no server-fault code exists at this layer.
func ReplyForError(err error) *dwn.MessageReply {
	code := dwn.StatusBadRequest
	if dwn.IsAuthenticationError(err) || dwn.IsAuthorizationError(err) {
		code = dwn.StatusUnauthorized
	}
	return dwn.ReplyFromError(err, code)
}

// RecordHistory loads every persisted message of the logical record,
// which is the input of history resolution.
func RecordHistory(ctx context.Context, store *storage.Controller, tenant dwn.DID, recordID string) ([]*dwn.StoredMessage, error) {
	return store.QueryMessages(ctx, tenant, dwn.Filter{
		"interface": dwn.InterfaceRecords,
		"recordId":  recordID,
	})
}

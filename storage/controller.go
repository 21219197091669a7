// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

// Package storage binds the message index and the payload store into
// one surface. The two stores only meet through content identifiers:
// a payload is reachable iff a persisted message references it.
package storage

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/dwnode/go-dwn"
)

// Controller is the storage surface the method handlers work against.
type Controller struct {
	msgs  dwn.MessageStore
	blobs dwn.BlobStore
}

func New(msgs dwn.MessageStore, blobs dwn.BlobStore) *Controller {
	return &Controller{msgs: msgs, blobs: blobs}
}

// QueryMessages returns all of the tenant's messages matching the
// filter, unordered.
func (c *Controller) QueryMessages(ctx context.Context, tenant dwn.DID, filter dwn.Filter) ([]*dwn.StoredMessage, error) {
	return c.msgs.Query(ctx, tenant, filter)
}

// PutMessage persists a message envelope. Payloads go through PutData.
func (c *Controller) PutMessage(ctx context.Context, tenant dwn.DID, msg *dwn.StoredMessage) error {
	return c.msgs.Put(ctx, tenant, msg)
}

// PutData stores a payload under the referencing message and returns
// the content identifier the data actually hashes to. Callers compare
// it against the descriptor's declared dataCid.
func (c *Controller) PutData(ctx context.Context, tenant dwn.DID, messageCid dwn.Cid, data io.Reader) (dwn.Cid, int64, error) {
	return c.blobs.Put(ctx, tenant, messageCid, data)
}

// GetData streams the payload a message references, or ErrNoSuchBlob
// when either the content or the reference is absent.
func (c *Controller) GetData(ctx context.Context, tenant dwn.DID, messageCid, dataCid dwn.Cid) (io.ReadCloser, error) {
	return c.blobs.Get(ctx, tenant, messageCid, dataCid)
}

// DeleteData drops a message's payload reference without touching the
// message index. Unreferenced content is garbage collected.
func (c *Controller) DeleteData(ctx context.Context, tenant dwn.DID, messageCid dwn.Cid) error {
	return c.blobs.Delete(ctx, tenant, messageCid)
}

// DeleteMessage removes a message and drops its payload reference.
func (c *Controller) DeleteMessage(ctx context.Context, tenant dwn.DID, cid dwn.Cid) error {
	if err := c.msgs.Delete(ctx, tenant, cid); err != nil {
		return err
	}
	return c.blobs.Delete(ctx, tenant, cid)
}

func (c *Controller) Close() error {
	return errors.Wrap(c.msgs.Close(), "storage: error closing message store")
}

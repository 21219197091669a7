// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

// Package dwn holds the core types and store contracts of a decentralized
// web node: signed self-describing messages, content identifiers, the
// reply envelope and the split metadata/blob storage model.
//
// The packages in this module compose them into the message-processing
// pipeline: parse, authenticate, authorize, resolve, reply.
package dwn

import (
	"context"
	"io"
)

// Filter selects persisted messages by exact field equality.
// Keys are descriptor field names as they appear on the wire
// (e.g. "interface", "method", "recordId", "protocol").
type Filter map[string]string

// MessageStore is the metadata/index side of the storage model. It holds
// full message envelopes (descriptor plus authorization, no payloads)
// and answers equality queries over descriptor fields. Result order is
// unspecified, ordering is the history resolver's job.
type MessageStore interface {
	// Put persists a message under the given tenant. Writing the same
	// message twice is a no-op since its CID is content-derived.
	Put(ctx context.Context, tenant DID, msg *StoredMessage) error

	// Query returns all messages of the tenant matching every entry of
	// the filter.
	Query(ctx context.Context, tenant DID, filter Filter) ([]*StoredMessage, error)

	// Delete removes the message with the given CID from the tenant's
	// index. History stays intact for all other messages.
	Delete(ctx context.Context, tenant DID, cid Cid) error

	io.Closer
}

// BlobStore holds raw message payloads, content-addressed and scoped per
// tenant. A payload is only retrievable through the message that
// references it, which is what binds the two stores together.
type BlobStore interface {
	// Put stores the payload and associates it with the referencing
	// message. It returns the content identifier and size of the data.
	Put(ctx context.Context, tenant DID, messageCid Cid, data io.Reader) (Cid, int64, error)

	// Get returns a reader of the payload, or ErrNoSuchBlob if either
	// the content or the message association is absent.
	Get(ctx context.Context, tenant DID, messageCid, dataCid Cid) (io.ReadCloser, error)

	// Delete drops the association of messageCid and garbage collects
	// content that is no longer referenced.
	Delete(ctx context.Context, tenant DID, messageCid Cid) error
}

// Signer produces a detached signature over a payload. Implemented by
// KeyPair, used on the message create path only.
type Signer interface {
	DID() DID
	Sign(payload []byte) (Signature, error)
}

// MethodHandler processes one (interface, method) pair. Implementations
// never fail outward: every outcome, including malformed input, is a
// reply with the appropriate status.
type MethodHandler interface {
	Handle(ctx context.Context, tenant DID, raw RawMessage) *MessageReply
}

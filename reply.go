// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package dwn

import (
	"io"

	"github.com/pkg/errors"
)

// Reply status codes. No other codes are defined at this layer.
const (
	StatusOK           = 200
	StatusBadRequest   = 400
	StatusUnauthorized = 401
	StatusNotFound     = 404
)

// Status is the HTTP-like outcome of processing one message.
type Status struct {
	Code   int    `json:"code"`
	Detail string `json:"detail"`
}

// MessageReply is the uniform result type of every handler. Entries and
// Data are mutually exclusive: a reply answers either a listing query or
// a single-object read, never both.
type MessageReply struct {
	Status Status `json:"status"`

	// Entries are the resulting message entries of a query-style
	// message, e.g. a ProtocolsQuery.
	Entries []QueryResultEntry `json:"entries,omitempty"`

	// Data is the payload stream of a read-style message, e.g. a
	// RecordsRead. The caller owns closing it.
	Data io.ReadCloser `json:"-"`
}

// NewMessageReply builds a reply from its parts and rejects the
// contract violation of setting both entries and data.
func NewMessageReply(status Status, entries []QueryResultEntry, data io.ReadCloser) (*MessageReply, error) {
	if entries != nil && data != nil {
		return nil, errors.New("dwn: message reply cannot carry both entries and data")
	}
	return &MessageReply{Status: status, Entries: entries, Data: data}, nil
}

func NewStatusReply(code int, detail string) *MessageReply {
	return &MessageReply{Status: Status{Code: code, Detail: detail}}
}

func NewEntriesReply(code int, detail string, entries []QueryResultEntry) *MessageReply {
	return &MessageReply{Status: Status{Code: code, Detail: detail}, Entries: entries}
}

func NewDataReply(code int, detail string, data io.ReadCloser) *MessageReply {
	return &MessageReply{Status: Status{Code: code, Detail: detail}, Data: data}
}

// ReplyFromError wraps an arbitrary failure into a reply, using the
// error text as detail with a generic fallback.
func ReplyFromError(err error, code int) *MessageReply {
	detail := "Error"
	if err != nil && err.Error() != "" {
		detail = err.Error()
	}
	return NewStatusReply(code, detail)
}

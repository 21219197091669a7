// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package dwn

import (
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyEntriesAndDataAreExclusive(t *testing.T) {
	r := require.New(t)

	entries := []QueryResultEntry{{}}
	data := io.NopCloser(strings.NewReader("blob"))

	_, err := NewMessageReply(Status{Code: StatusOK, Detail: "OK"}, entries, data)
	r.Error(err, "setting both entries and data is a contract violation")

	onlyEntries, err := NewMessageReply(Status{Code: StatusOK, Detail: "OK"}, entries, nil)
	r.NoError(err)
	r.Nil(onlyEntries.Data)

	onlyData, err := NewMessageReply(Status{Code: StatusOK, Detail: "OK"}, nil, data)
	r.NoError(err)
	r.Nil(onlyData.Entries)
}

func TestReplyFromError(t *testing.T) {
	a := assert.New(t)

	reply := ReplyFromError(errors.New("broken descriptor"), StatusBadRequest)
	a.Equal(StatusBadRequest, reply.Status.Code)
	a.Equal("broken descriptor", reply.Status.Detail)
	a.Nil(reply.Entries)
	a.Nil(reply.Data)

	reply = ReplyFromError(nil, StatusUnauthorized)
	a.Equal("Error", reply.Status.Detail, "failures without a message fall back to a generic detail")
}

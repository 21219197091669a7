// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package records

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	kitlog "go.mindeco.de/log"

	"github.com/dwnode/go-dwn"
	"github.com/dwnode/go-dwn/authorize"
	"github.com/dwnode/go-dwn/blobstore"
	"github.com/dwnode/go-dwn/message"
	"github.com/dwnode/go-dwn/messagestore"
	"github.com/dwnode/go-dwn/repo"
	"github.com/dwnode/go-dwn/storage"
)

type testNode struct {
	owner *dwn.KeyPair

	read   *ReadHandler
	write  *WriteHandler
	delete *DeleteHandler
}

func makeTestNode(t *testing.T) *testNode {
	t.Helper()
	r := require.New(t)

	owner, err := dwn.NewKeyPair(nil)
	r.NoError(err)

	rp := repo.New(t.TempDir())
	msgs, err := messagestore.Open(rp, kitlog.NewNopLogger())
	r.NoError(err)
	t.Cleanup(func() { msgs.Close() })

	blobs, err := blobstore.New(rp.GetPath("blobs"))
	r.NoError(err)

	store := storage.New(msgs, blobs)
	resolver := dwn.KeyResolver{}
	logger := kitlog.NewNopLogger()

	return &testNode{
		owner: owner,
		read: &ReadHandler{
			Store:    store,
			Resolver: resolver,
			Policy:   authorize.Published{},
			Logger:   logger,
		},
		write:  &WriteHandler{Store: store, Resolver: resolver, Logger: logger},
		delete: &DeleteHandler{Store: store, Resolver: resolver, Logger: logger},
	}
}

func (n *testNode) tenant() dwn.DID { return n.owner.Id }

// writeRecord runs a full RecordsWrite through the handler.
func (n *testNode) writeRecord(t *testing.T, recordID, payload string, published *bool, ts string) *dwn.MessageReply {
	t.Helper()
	r := require.New(t)

	rw, err := message.CreateRecordsWrite(message.RecordsWriteOptions{
		RecordID:         recordID,
		MessageTimestamp: ts,
		DataCID:          dwn.NewCidForContent([]byte(payload)),
		DataFormat:       "text/plain",
		Published:        published,
		Signer:           n.owner,
	})
	r.NoError(err)

	raw, err := rawOf(rw.Message())
	r.NoError(err)
	raw.Data = strings.NewReader(payload)

	return n.write.Handle(context.Background(), n.tenant(), raw)
}

func (n *testNode) readRecord(t *testing.T, recordID string, signer dwn.Signer) *dwn.MessageReply {
	t.Helper()
	r := require.New(t)

	rr, err := message.CreateRecordsRead(message.RecordsReadOptions{
		RecordID: recordID,
		Signer:   signer,
	})
	r.NoError(err)

	raw, err := rawOf(rr.Message())
	r.NoError(err)
	return n.read.Handle(context.Background(), n.tenant(), raw)
}

func rawOf(msg dwn.StoredMessage) (dwn.RawMessage, error) {
	canonical, err := msg.Descriptor.Canonical()
	if err != nil {
		return dwn.RawMessage{}, err
	}
	return dwn.RawMessage{Descriptor: canonical, Authorization: msg.Authorization}, nil
}

func boolPtr(b bool) *bool { return &b }

func TestReadUnknownRecord(t *testing.T) {
	n := makeTestNode(t)

	reply := n.readRecord(t, "no-such-record", n.owner)
	require.Equal(t, dwn.StatusNotFound, reply.Status.Code)
	require.Nil(t, reply.Entries)
	require.Nil(t, reply.Data)
}

func TestPublishedRecordAnonymousRead(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	reply := n.writeRecord(t, "record-1", "hello world", boolPtr(true), "")
	r.Equal(dwn.StatusOK, reply.Status.Code)

	got := n.readRecord(t, "record-1", nil)
	r.Equal(dwn.StatusOK, got.Status.Code)
	r.NotNil(got.Data)

	body, err := io.ReadAll(got.Data)
	r.NoError(err)
	r.NoError(got.Data.Close())
	r.Equal("hello world", string(body))
}

func TestUnpublishedRecordAccess(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	reply := n.writeRecord(t, "record-1", "owner eyes only", nil, "")
	r.Equal(dwn.StatusOK, reply.Status.Code)

	// anonymous is denied
	got := n.readRecord(t, "record-1", nil)
	r.Equal(dwn.StatusUnauthorized, got.Status.Code)

	// a stranger with valid keys is denied too
	stranger, err := dwn.NewKeyPair(nil)
	r.NoError(err)
	got = n.readRecord(t, "record-1", stranger)
	r.Equal(dwn.StatusUnauthorized, got.Status.Code)

	// the owner reads fine
	got = n.readRecord(t, "record-1", n.owner)
	r.Equal(dwn.StatusOK, got.Status.Code)
	r.NotNil(got.Data)
	got.Data.Close()
}

func TestDeleteTombstonesRecord(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	reply := n.writeRecord(t, "record-1", "short lived", boolPtr(true), "")
	r.Equal(dwn.StatusOK, reply.Status.Code)

	rd, err := message.CreateRecordsDelete(message.RecordsDeleteOptions{
		RecordID: "record-1",
		Signer:   n.owner,
	})
	r.NoError(err)
	raw, err := rawOf(rd.Message())
	r.NoError(err)

	delReply := n.delete.Handle(context.Background(), n.tenant(), raw)
	r.Equal(dwn.StatusOK, delReply.Status.Code)

	got := n.readRecord(t, "record-1", n.owner)
	r.Equal(dwn.StatusNotFound, got.Status.Code)

	// deleting again finds nothing
	rd2, err := message.CreateRecordsDelete(message.RecordsDeleteOptions{
		RecordID: "record-1",
		Signer:   n.owner,
	})
	r.NoError(err)
	raw2, err := rawOf(rd2.Message())
	r.NoError(err)
	r.Equal(dwn.StatusNotFound, n.delete.Handle(context.Background(), n.tenant(), raw2).Status.Code)
}

func TestMalformedWrite(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	reply := n.write.Handle(context.Background(), n.tenant(), dwn.RawMessage{
		Descriptor: []byte(`{"interface":"Records","method":"Write"}`),
	})
	r.Equal(dwn.StatusBadRequest, reply.Status.Code)
	r.NotEmpty(reply.Status.Detail)
}

func TestStaleWriteRejected(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	now := time.Now()
	tsNew := now.UTC().Format(dwn.TimestampFormat)
	tsOld := now.Add(-time.Hour).UTC().Format(dwn.TimestampFormat)

	reply := n.writeRecord(t, "record-1", "current", boolPtr(true), tsNew)
	r.Equal(dwn.StatusOK, reply.Status.Code)

	reply = n.writeRecord(t, "record-1", "from the past", boolPtr(true), tsOld)
	r.Equal(dwn.StatusBadRequest, reply.Status.Code)

	// the stored state is unchanged
	got := n.readRecord(t, "record-1", nil)
	r.Equal(dwn.StatusOK, got.Status.Code)
	body, err := io.ReadAll(got.Data)
	r.NoError(err)
	got.Data.Close()
	r.Equal("current", string(body))
}

func TestUpdateReplacesPayload(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	now := time.Now()
	ts1 := now.UTC().Format(dwn.TimestampFormat)
	ts2 := now.Add(time.Second).UTC().Format(dwn.TimestampFormat)

	r.Equal(dwn.StatusOK, n.writeRecord(t, "record-1", "version one", boolPtr(true), ts1).Status.Code)
	r.Equal(dwn.StatusOK, n.writeRecord(t, "record-1", "version two", boolPtr(true), ts2).Status.Code)

	got := n.readRecord(t, "record-1", nil)
	r.Equal(dwn.StatusOK, got.Status.Code)
	body, err := io.ReadAll(got.Data)
	r.NoError(err)
	got.Data.Close()
	r.Equal("version two", string(body))
}

func TestWriteDataMismatch(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	rw, err := message.CreateRecordsWrite(message.RecordsWriteOptions{
		RecordID:   "record-1",
		DataCID:    dwn.NewCidForContent([]byte("declared")),
		DataFormat: "text/plain",
		Signer:     n.owner,
	})
	r.NoError(err)

	raw, err := rawOf(rw.Message())
	r.NoError(err)
	raw.Data = strings.NewReader("something else entirely")

	reply := n.write.Handle(context.Background(), n.tenant(), raw)
	r.Equal(dwn.StatusBadRequest, reply.Status.Code)
}

func TestWriteByStrangerRejected(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	stranger, err := dwn.NewKeyPair(nil)
	r.NoError(err)

	rw, err := message.CreateRecordsWrite(message.RecordsWriteOptions{
		RecordID:   "record-1",
		DataCID:    dwn.NewCidForContent([]byte("intrusion")),
		DataFormat: "text/plain",
		Signer:     stranger,
	})
	r.NoError(err)

	raw, err := rawOf(rw.Message())
	r.NoError(err)
	raw.Data = strings.NewReader("intrusion")

	reply := n.write.Handle(context.Background(), n.tenant(), raw)
	r.Equal(dwn.StatusUnauthorized, reply.Status.Code)
}

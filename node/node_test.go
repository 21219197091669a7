// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package node

import (
	"context"
	stdjson "encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	kitlog "go.mindeco.de/log"

	"github.com/dwnode/go-dwn"
	"github.com/dwnode/go-dwn/internal/testutils"
	"github.com/dwnode/go-dwn/message"
)

func makeNode(t *testing.T, path string, opts ...Option) (*Node, *dwn.KeyPair) {
	t.Helper()
	r := require.New(t)

	owner, err := dwn.NewKeyPair(nil)
	r.NoError(err)

	info := kitlog.NewNopLogger()
	if testing.Verbose() {
		info = testutils.NewRelativeTimeLogger(nil)
	}

	n, err := New(append([]Option{WithRepoPath(path), WithInfo(info)}, opts...)...)
	r.NoError(err)
	return n, owner
}

func rawOf(t *testing.T, msg dwn.StoredMessage) dwn.RawMessage {
	t.Helper()
	canonical, err := msg.Descriptor.Canonical()
	require.NoError(t, err)
	return dwn.RawMessage{Descriptor: canonical, Authorization: msg.Authorization}
}

func writeRecord(t *testing.T, n *Node, owner *dwn.KeyPair, recordID, payload string, published bool) {
	t.Helper()
	r := require.New(t)

	rw, err := message.CreateRecordsWrite(message.RecordsWriteOptions{
		RecordID:   recordID,
		DataCID:    dwn.NewCidForContent([]byte(payload)),
		DataFormat: "text/plain",
		Published:  &published,
		Signer:     owner,
	})
	r.NoError(err)

	raw := rawOf(t, rw.Message())
	raw.Data = strings.NewReader(payload)

	reply := n.HandleMessage(context.Background(), owner.Id, raw)
	r.Equal(dwn.StatusOK, reply.Status.Code, reply.Status.Detail)
}

func readRecord(t *testing.T, n *Node, tenant dwn.DID, recordID string, signer dwn.Signer) *dwn.MessageReply {
	t.Helper()
	rr, err := message.CreateRecordsRead(message.RecordsReadOptions{
		RecordID: recordID,
		Signer:   signer,
	})
	require.NoError(t, err)
	return n.HandleMessage(context.Background(), tenant, rawOf(t, rr.Message()))
}

func TestMessageRoundtrip(t *testing.T) {
	r := require.New(t)

	n, owner := makeNode(t, t.TempDir())
	defer n.Close()

	writeRecord(t, n, owner, "record-1", "node roundtrip", true)

	reply := readRecord(t, n, owner.Id, "record-1", nil)
	r.Equal(dwn.StatusOK, reply.Status.Code)
	r.NotNil(reply.Data)

	body, err := io.ReadAll(reply.Data)
	r.NoError(err)
	r.NoError(reply.Data.Close())
	r.Equal("node roundtrip", string(body))
}

func TestUnknownDiscriminant(t *testing.T) {
	r := require.New(t)

	n, owner := makeNode(t, t.TempDir())
	defer n.Close()

	reply := n.HandleMessage(context.Background(), owner.Id, dwn.RawMessage{
		Descriptor: []byte(`{"interface":"Hooks","method":"Write","messageTimestamp":"` + dwn.Now() + `"}`),
	})
	r.Equal(dwn.StatusBadRequest, reply.Status.Code)

	reply = n.HandleMessage(context.Background(), owner.Id, dwn.RawMessage{
		Descriptor: []byte(`not json`),
	})
	r.Equal(dwn.StatusBadRequest, reply.Status.Code)
}

func TestProtocolsOverNode(t *testing.T) {
	r := require.New(t)

	n, owner := makeNode(t, t.TempDir())
	defer n.Close()

	pc, err := message.CreateProtocolsConfigure(message.ProtocolsConfigureOptions{
		Protocol:   "chat",
		Definition: stdjson.RawMessage(`{"published":true}`),
		Signer:     owner,
	})
	r.NoError(err)
	reply := n.HandleMessage(context.Background(), owner.Id, rawOf(t, pc.Message()))
	r.Equal(dwn.StatusOK, reply.Status.Code)

	pq, err := message.CreateProtocolsQuery(message.ProtocolsQueryOptions{Signer: owner})
	r.NoError(err)
	reply = n.HandleMessage(context.Background(), owner.Id, rawOf(t, pq.Message()))
	r.Equal(dwn.StatusOK, reply.Status.Code)
	r.Len(reply.Entries, 1)
	r.Equal("chat", reply.Entries[0].Descriptor.Protocol)
}

func TestProtocolRulesPolicy(t *testing.T) {
	r := require.New(t)

	n, owner := makeNode(t, t.TempDir(), WithProtocolRulesPolicy())
	defer n.Close()

	pc, err := message.CreateProtocolsConfigure(message.ProtocolsConfigureOptions{
		Protocol:   "bulletin",
		Definition: stdjson.RawMessage(`{"published":true}`),
		Signer:     owner,
	})
	r.NoError(err)
	reply := n.HandleMessage(context.Background(), owner.Id, rawOf(t, pc.Message()))
	r.Equal(dwn.StatusOK, reply.Status.Code)

	// an unpublished record in a published protocol is readable by anyone
	rw, err := message.CreateRecordsWrite(message.RecordsWriteOptions{
		RecordID:   "post-1",
		DataCID:    dwn.NewCidForContent([]byte("open post")),
		DataFormat: "text/plain",
		Protocol:   "bulletin",
		Signer:     owner,
	})
	r.NoError(err)
	raw := rawOf(t, rw.Message())
	raw.Data = strings.NewReader("open post")
	reply = n.HandleMessage(context.Background(), owner.Id, raw)
	r.Equal(dwn.StatusOK, reply.Status.Code, reply.Status.Detail)

	got := readRecord(t, n, owner.Id, "post-1", nil)
	r.Equal(dwn.StatusOK, got.Status.Code)
	got.Data.Close()
}

func TestPersistenceAcrossRestart(t *testing.T) {
	r := require.New(t)
	path := t.TempDir()

	n, owner := makeNode(t, path)
	writeRecord(t, n, owner, "record-1", "survives restarts", true)
	r.NoError(n.Close())

	n2, err := New(WithRepoPath(path))
	r.NoError(err)
	defer n2.Close()

	reply := readRecord(t, n2, owner.Id, "record-1", nil)
	r.Equal(dwn.StatusOK, reply.Status.Code)
	body, err := io.ReadAll(reply.Data)
	r.NoError(err)
	reply.Data.Close()
	r.Equal("survives restarts", string(body))
}

func TestClosedNodeRefusesMessages(t *testing.T) {
	r := require.New(t)

	n, owner := makeNode(t, t.TempDir())
	r.NoError(n.Close())

	reply := readRecord(t, n, owner.Id, "record-1", nil)
	r.Equal(dwn.StatusBadRequest, reply.Status.Code)
	r.Contains(reply.Status.Detail, "shutting down")
}

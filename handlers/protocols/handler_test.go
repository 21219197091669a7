// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package protocols

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	kitlog "go.mindeco.de/log"

	"github.com/dwnode/go-dwn"
	"github.com/dwnode/go-dwn/blobstore"
	"github.com/dwnode/go-dwn/message"
	"github.com/dwnode/go-dwn/messagestore"
	"github.com/dwnode/go-dwn/repo"
	"github.com/dwnode/go-dwn/storage"
)

type testNode struct {
	owner *dwn.KeyPair

	configure *ConfigureHandler
	query     *QueryHandler
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
		owner:     owner,
		configure: &ConfigureHandler{Store: store, Resolver: resolver, Logger: logger},
		query:     &QueryHandler{Store: store, Resolver: resolver, Logger: logger},
	}
}

func (n *testNode) tenant() dwn.DID { return n.owner.Id }

func rawOf(msg dwn.StoredMessage) (dwn.RawMessage, error) {
	canonical, err := msg.Descriptor.Canonical()
	if err != nil {
		return dwn.RawMessage{}, err
	}
	return dwn.RawMessage{Descriptor: canonical, Authorization: msg.Authorization}, nil
}

func (n *testNode) configureProtocol(t *testing.T, signer dwn.Signer, protocol, definition, ts string) *dwn.MessageReply {
	t.Helper()
	r := require.New(t)

	pc, err := message.CreateProtocolsConfigure(message.ProtocolsConfigureOptions{
		Protocol:         protocol,
		Definition:       json.RawMessage(definition),
		MessageTimestamp: ts,
		Signer:           signer,
	})
	r.NoError(err)

	raw, err := rawOf(pc.Message())
	r.NoError(err)
	return n.configure.Handle(context.Background(), n.tenant(), raw)
}

func (n *testNode) queryProtocols(t *testing.T, signer dwn.Signer, filter dwn.Filter) *dwn.MessageReply {
	t.Helper()
	r := require.New(t)

	pq, err := message.CreateProtocolsQuery(message.ProtocolsQueryOptions{
		Filter: filter,
		Signer: signer,
	})
	r.NoError(err)

	raw, err := rawOf(pq.Message())
	r.NoError(err)
	return n.query.Handle(context.Background(), n.tenant(), raw)
}

func TestConfigureAndQuery(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	reply := n.configureProtocol(t, n.owner, "chat", `{"published":true}`, "")
	r.Equal(dwn.StatusOK, reply.Status.Code)

	got := n.queryProtocols(t, n.owner, nil)
	r.Equal(dwn.StatusOK, got.Status.Code)
	r.Len(got.Entries, 1)
	r.Equal("chat", got.Entries[0].Descriptor.Protocol)

	// entries carry no signature material
	encoded, err := json.Marshal(got.Entries[0])
	r.NoError(err)
	r.NotContains(string(encoded), "signature")
	r.NotContains(string(encoded), "payloadCid")
}

func TestQueryFilter(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	r.Equal(dwn.StatusOK, n.configureProtocol(t, n.owner, "chat", `{"published":true}`, "").Status.Code)
	r.Equal(dwn.StatusOK, n.configureProtocol(t, n.owner, "mail", `{"published":false}`, "").Status.Code)

	got := n.queryProtocols(t, n.owner, dwn.Filter{"protocol": "mail"})
	r.Equal(dwn.StatusOK, got.Status.Code)
	r.Len(got.Entries, 1)
	r.Equal("mail", got.Entries[0].Descriptor.Protocol)

	// the filter cannot escape the configure subset
	got = n.queryProtocols(t, n.owner, dwn.Filter{"interface": "Records", "method": "Write"})
	r.Equal(dwn.StatusOK, got.Status.Code)
	r.Len(got.Entries, 2)
}

func TestReconfigureNewestWins(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	now := time.Now()
	ts1 := now.UTC().Format(dwn.TimestampFormat)
	ts2 := now.Add(time.Second).UTC().Format(dwn.TimestampFormat)

	r.Equal(dwn.StatusOK, n.configureProtocol(t, n.owner, "chat", `{"published":false}`, ts1).Status.Code)
	r.Equal(dwn.StatusOK, n.configureProtocol(t, n.owner, "chat", `{"published":true}`, ts2).Status.Code)

	got := n.queryProtocols(t, n.owner, dwn.Filter{"protocol": "chat"})
	r.Equal(dwn.StatusOK, got.Status.Code)
	r.Len(got.Entries, 1)

	var def struct {
		Published bool `json:"published"`
	}
	r.NoError(json.Unmarshal(got.Entries[0].Descriptor.Definition, &def))
	r.True(def.Published)

	// an older reconfigure loses
	tsOld := now.Add(-time.Hour).UTC().Format(dwn.TimestampFormat)
	r.Equal(dwn.StatusBadRequest, n.configureProtocol(t, n.owner, "chat", `{"published":false}`, tsOld).Status.Code)
}

func TestConfigureByStrangerRejected(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	stranger, err := dwn.NewKeyPair(nil)
	r.NoError(err)

	reply := n.configureProtocol(t, stranger, "chat", `{"published":true}`, "")
	r.Equal(dwn.StatusUnauthorized, reply.Status.Code)
}

func TestUnsignedQueryRejected(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	pq, err := message.CreateProtocolsQuery(message.ProtocolsQueryOptions{})
	r.NoError(err)

	raw, err := rawOf(pq.Message())
	r.NoError(err)

	reply := n.query.Handle(context.Background(), n.tenant(), raw)
	r.Equal(dwn.StatusUnauthorized, reply.Status.Code)
}

func TestMalformedConfigure(t *testing.T) {
	r := require.New(t)
	n := makeTestNode(t)

	reply := n.configure.Handle(context.Background(), n.tenant(), dwn.RawMessage{
		Descriptor: []byte(`{"interface":"Protocols","method":"Configure","messageTimestamp":"` + dwn.Now() + `"}`),
	})
	r.Equal(dwn.StatusBadRequest, reply.Status.Code)
}

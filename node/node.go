// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

// Package node assembles a decentralized web node: it opens the
// repository, wires the stores to the method handlers and dispatches
// inbound messages by their (interface, method) discriminant.
package node

import (
	"context"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	kitlog "go.mindeco.de/log"
	"go.mindeco.de/log/level"

	"github.com/dwnode/go-dwn"
	"github.com/dwnode/go-dwn/authorize"
	"github.com/dwnode/go-dwn/blobstore"
	"github.com/dwnode/go-dwn/handlers/protocols"
	"github.com/dwnode/go-dwn/handlers/records"
	"github.com/dwnode/go-dwn/messagestore"
	"github.com/dwnode/go-dwn/repo"
	"github.com/dwnode/go-dwn/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type handlerKey struct {
	iface  string
	method string
}

type registration struct {
	key handlerKey
	h   dwn.MethodHandler
}

// Node processes messages against its repository. Safe for concurrent
// use, HandleMessage never returns an error or a nil reply.
type Node struct {
	repoPath string
	info     kitlog.Logger

	rootCtx  context.Context
	shutdown context.CancelFunc

	resolver         dwn.DIDResolver
	readPolicy       authorize.Policy
	useProtocolRules bool
	metrics          *Metrics
	extraHandlers    []registration

	closers multiCloser

	Store    *storage.Controller
	dispatch map[handlerKey]dwn.MethodHandler
}

// New opens the repository and wires up a ready node.
func New(fopts ...Option) (*Node, error) {
	var n Node
	for i, opt := range fopts {
		if err := opt(&n); err != nil {
			return nil, errors.Wrapf(err, "node: error applying option #%d", i)
		}
	}

	if n.repoPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "node: failed to find home directory for default repo location")
		}
		n.repoPath = filepath.Join(home, ".go-dwn")
	}
	if n.info == nil {
		n.info = kitlog.NewNopLogger()
	}
	if n.rootCtx == nil {
		n.rootCtx = context.Background()
	}
	n.rootCtx, n.shutdown = context.WithCancel(n.rootCtx)
	if n.resolver == nil {
		n.resolver = dwn.KeyResolver{}
	}

	r := repo.New(n.repoPath)

	msgs, err := messagestore.Open(r, kitlog.With(n.info, "unit", "messagestore"))
	if err != nil {
		return nil, err
	}
	n.closers.addCloser(msgs)

	blobs, err := blobstore.New(r.GetPath("blobs"))
	if err != nil {
		n.closers.Close()
		return nil, err
	}

	n.Store = storage.New(msgs, blobs)

	if n.readPolicy == nil {
		if n.useProtocolRules {
			n.readPolicy = authorize.ProtocolRules{
				Store:    msgs,
				Fallback: authorize.Published{},
			}
		} else {
			n.readPolicy = authorize.Published{}
		}
	}

	n.dispatch = map[handlerKey]dwn.MethodHandler{
		{dwn.InterfaceRecords, dwn.MethodRead}: &records.ReadHandler{
			Store:    n.Store,
			Resolver: n.resolver,
			Policy:   n.readPolicy,
			Logger:   kitlog.With(n.info, "handler", "records.read"),
		},
		{dwn.InterfaceRecords, dwn.MethodWrite}: &records.WriteHandler{
			Store:    n.Store,
			Resolver: n.resolver,
			Logger:   kitlog.With(n.info, "handler", "records.write"),
		},
		{dwn.InterfaceRecords, dwn.MethodDelete}: &records.DeleteHandler{
			Store:    n.Store,
			Resolver: n.resolver,
			Logger:   kitlog.With(n.info, "handler", "records.delete"),
		},
		{dwn.InterfaceProtocols, dwn.MethodQuery}: &protocols.QueryHandler{
			Store:    n.Store,
			Resolver: n.resolver,
			Logger:   kitlog.With(n.info, "handler", "protocols.query"),
		},
		{dwn.InterfaceProtocols, dwn.MethodConfigure}: &protocols.ConfigureHandler{
			Store:    n.Store,
			Resolver: n.resolver,
			Logger:   kitlog.With(n.info, "handler", "protocols.configure"),
		},
	}
	for _, reg := range n.extraHandlers {
		n.dispatch[reg.key] = reg.h
	}

	level.Info(n.info).Log("event", "node ready", "repo", n.repoPath)
	return &n, nil
}

// discriminant is the minimal descriptor peek dispatch needs.
type discriminant struct {
	Interface string `json:"interface"`
	Method    string `json:"method"`
}

// HandleMessage routes one message to its handler. Every outcome is a
// reply: unknown discriminants and processing failures included.
func (n *Node) HandleMessage(ctx context.Context, tenant dwn.DID, raw dwn.RawMessage) *dwn.MessageReply {
	select {
	case <-n.rootCtx.Done():
		return dwn.ReplyFromError(dwn.ErrShuttingDown, dwn.StatusBadRequest)
	default:
	}

	var disc discriminant
	if err := json.Unmarshal(raw.Descriptor, &disc); err != nil {
		return dwn.NewStatusReply(dwn.StatusBadRequest, "undecodable descriptor")
	}

	h, ok := n.dispatch[handlerKey{disc.Interface, disc.Method}]
	if !ok {
		return dwn.NewStatusReply(dwn.StatusBadRequest, "unhandled interface and method")
	}

	start := time.Now()
	reply := h.Handle(ctx, tenant, raw)
	n.metrics.observe(disc.Interface, disc.Method, reply.Status.Code, time.Since(start))

	return reply
}

// Close shuts the node down and releases its stores. In-flight messages
// finish, new ones are refused.
func (n *Node) Close() error {
	n.shutdown()
	level.Info(n.info).Log("event", "closing node")
	return n.closers.Close()
}

// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package node

import (
	"context"

	"github.com/pkg/errors"
	kitlog "go.mindeco.de/log"

	"github.com/dwnode/go-dwn"
	"github.com/dwnode/go-dwn/authorize"
)

type Option func(*Node) error

func WithRepoPath(path string) Option {
	return func(n *Node) error {
		if path == "" {
			return errors.New("node: empty repo path")
		}
		n.repoPath = path
		return nil
	}
}

func WithInfo(log kitlog.Logger) Option {
	return func(n *Node) error {
		n.info = log
		return nil
	}
}

func WithContext(ctx context.Context) Option {
	return func(n *Node) error {
		n.rootCtx = ctx
		return nil
	}
}

// WithDIDResolver replaces the built-in self-certifying did:dwn
// resolver, e.g. with one that handles external DID methods.
func WithDIDResolver(r dwn.DIDResolver) Option {
	return func(n *Node) error {
		if r == nil {
			return errors.New("node: nil DID resolver")
		}
		n.resolver = r
		return nil
	}
}

// WithReadPolicy selects the authorization policy of RecordsRead.
// The default is published-or-owner.
func WithReadPolicy(p authorize.Policy) Option {
	return func(n *Node) error {
		if p == nil {
			return errors.New("node: nil read policy")
		}
		n.readPolicy = p
		return nil
	}
}

// WithProtocolRulesPolicy switches reads to protocol-rule evaluation
// with published-or-owner as the fallback for records outside any
// protocol.
func WithProtocolRulesPolicy() Option {
	return func(n *Node) error {
		n.useProtocolRules = true
		return nil
	}
}

func WithMetrics(m *Metrics) Option {
	return func(n *Node) error {
		n.metrics = m
		return nil
	}
}

// WithHandler registers (or overrides) the handler of one
// (interface, method) pair.
func WithHandler(iface, method string, h dwn.MethodHandler) Option {
	return func(n *Node) error {
		if h == nil {
			return errors.New("node: nil method handler")
		}
		n.extraHandlers = append(n.extraHandlers, registration{key: handlerKey{iface, method}, h: h})
		return nil
	}
}

// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package message

import (
	"time"

	"github.com/dwnode/go-dwn"
)

// Newest resolves a record's history to its current winner: the message
// with the latest timestamp, ties broken by comparing message CIDs as
// opaque bytes (greater CID wins). The result is independent of input
// order, which is what lets replicas converge without coordination.
//
// Returns nil for empty history. Callers decide what a winning Delete
// means (see IsTombstone).
func Newest(msgs []*dwn.StoredMessage) (*dwn.StoredMessage, error) {
	var (
		best     *dwn.StoredMessage
		bestTime time.Time
		bestCid  dwn.Cid
	)

	for _, m := range msgs {
		t, err := dwn.ParseTimestamp(m.Descriptor.MessageTimestamp)
		if err != nil {
			return nil, err
		}
		cid, err := m.Cid()
		if err != nil {
			return nil, err
		}

		if best == nil || t.After(bestTime) || (t.Equal(bestTime) && dwn.CompareCids(cid, bestCid) > 0) {
			best, bestTime, bestCid = m, t, cid
		}
	}

	return best, nil
}

// WouldWin reports whether candidate would beat newest under the same
// ordering Newest applies. Write paths use it to reject stale messages
// before they enter history. A nil newest always loses.
func WouldWin(candidate dwn.StoredMessage, newest *dwn.StoredMessage) (bool, error) {
	if newest == nil {
		return true, nil
	}

	candTime, err := dwn.ParseTimestamp(candidate.Descriptor.MessageTimestamp)
	if err != nil {
		return false, err
	}
	curTime, err := dwn.ParseTimestamp(newest.Descriptor.MessageTimestamp)
	if err != nil {
		return false, err
	}

	if candTime.After(curTime) {
		return true, nil
	}
	if !candTime.Equal(curTime) {
		return false, nil
	}

	candCid, err := candidate.Cid()
	if err != nil {
		return false, err
	}
	curCid, err := newest.Cid()
	if err != nil {
		return false, err
	}
	return dwn.CompareCids(candCid, curCid) > 0, nil
}

// IsTombstone reports whether the winning message terminates the record:
// a newest Delete makes any read resolve to not-found, regardless of
// earlier writes still present in history.
func IsTombstone(m *dwn.StoredMessage) bool {
	return m != nil && m.Descriptor.Method == dwn.MethodDelete
}

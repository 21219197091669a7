// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

// Package messagestore persists message envelopes in an append-only
// receive log and answers equality queries through bitmap indexes.
//
// The offset2 log is the single source of truth, everything in the
// badger database is derived from it and rebuilt by replay if the two
// ever disagree.
package messagestore

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/sroar"
	"github.com/pkg/errors"
	"github.com/ssbc/go-luigi"
	"github.com/ssbc/margaret"
	kitlog "go.mindeco.de/log"
	"go.mindeco.de/log/level"

	"github.com/dwnode/go-dwn"
	"github.com/dwnode/go-dwn/repo"
)

// Store implements dwn.MessageStore.
type Store struct {
	mu sync.Mutex

	log repo.Log
	db  *badger.DB

	logger kitlog.Logger
}

var _ dwn.MessageStore = (*Store)(nil)

// Open opens (or creates) the store inside the given repository and
// replays any log entries the index has not seen yet.
func Open(r repo.Interface, logger kitlog.Logger) (*Store, error) {
	rxLog, err := repo.OpenLog(r, msgCodec{})
	if err != nil {
		return nil, err
	}

	db, err := repo.OpenIndex(r, "messages")
	if err != nil {
		rxLog.Close()
		return nil, err
	}

	s := &Store{
		log:    rxLog,
		db:     db,
		logger: logger,
	}

	if err := s.catchupIndex(); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "messagestore: index catchup failed")
	}

	return s, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logErr := s.log.Close()
	dbErr := s.db.Close()
	if logErr != nil {
		return errors.Wrap(logErr, "messagestore: error closing receive log")
	}
	return errors.Wrap(dbErr, "messagestore: error closing index db")
}

// key layout of the index db
const (
	prefixCid   = "c:" // c:<tenant>\xff<cid>        -> seq
	prefixTerm  = "t:" // t:<tenant>\xff<field=value> -> bitmap
	keyNextSeq  = "s:next"
	termAll     = "*" // every live message of the tenant
	keySepLimit = "\xff"
)

func cidKey(tenant dwn.DID, cid dwn.Cid) []byte {
	return []byte(prefixCid + string(tenant) + keySepLimit + cid.String())
}

func termKey(tenant dwn.DID, term string) []byte {
	return []byte(prefixTerm + string(tenant) + keySepLimit + term)
}

func seqToBytes(seq int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(seq))
	return b[:]
}

// indexedFields are the descriptor fields queries can filter on.
var indexedFields = []string{"interface", "method", "recordId", "protocol", "dataFormat"}

func fieldValue(d *dwn.Descriptor, field string) string {
	switch field {
	case "interface":
		return d.Interface
	case "method":
		return d.Method
	case "recordId":
		return d.RecordID
	case "protocol":
		return d.Protocol
	case "dataFormat":
		return d.DataFormat
	default:
		return ""
	}
}

func messageTerms(msg *dwn.StoredMessage) []string {
	terms := []string{termAll}
	for _, f := range indexedFields {
		if v := fieldValue(&msg.Descriptor, f); v != "" {
			terms = append(terms, f+"="+v)
		}
	}
	return terms
}

// Put appends the message to the receive log and indexes it. Storing a
// message whose CID is already present is a no-op.
func (s *Store) Put(ctx context.Context, tenant dwn.DID, msg *dwn.StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// stamp the owning tenant so a replay can re-derive the index
	msg.Tenant = tenant

	mcid, err := msg.Cid()
	if err != nil {
		return errors.Wrap(err, "messagestore: could not derive message cid")
	}

	var have bool
	err = s.db.View(func(txn *badger.Txn) error {
		_, getErr := txn.Get(cidKey(tenant, mcid))
		if getErr == nil {
			have = true
			return nil
		}
		if errors.Is(getErr, badger.ErrKeyNotFound) {
			return nil
		}
		return getErr
	})
	if err != nil {
		return errors.Wrap(err, "messagestore: dedup lookup failed")
	}
	if have {
		return nil
	}

	seq, err := s.log.Append(msg)
	if err != nil {
		return errors.Wrap(err, "messagestore: failed to append to receive log")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return indexMessage(txn, tenant, msg, mcid, seq)
	})
	return errors.Wrap(err, "messagestore: failed to index message")
}

func indexMessage(txn *badger.Txn, tenant dwn.DID, msg *dwn.StoredMessage, mcid dwn.Cid, seq int64) error {
	if err := txn.Set(cidKey(tenant, mcid), seqToBytes(seq)); err != nil {
		return err
	}

	for _, term := range messageTerms(msg) {
		bm, err := loadBitmap(txn, termKey(tenant, term))
		if err != nil {
			return err
		}
		bm.Set(uint64(seq))
		if err := txn.Set(termKey(tenant, term), bm.ToBuffer()); err != nil {
			return err
		}
	}

	return txn.Set([]byte(keyNextSeq), seqToBytes(seq+1))
}

func loadBitmap(txn *badger.Txn, key []byte) (*sroar.Bitmap, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return sroar.NewBitmap(), nil
	}
	if err != nil {
		return nil, err
	}

	buf, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return sroar.FromBuffer(buf), nil
}

// Query loads all messages of the tenant matching every filter entry.
// Result order is unspecified.
func (s *Store) Query(ctx context.Context, tenant dwn.DID, filter dwn.Filter) ([]*dwn.StoredMessage, error) {
	var seqs []uint64

	err := s.db.View(func(txn *badger.Txn) error {
		resulting, err := loadBitmap(txn, termKey(tenant, termAll))
		if err != nil {
			return err
		}

		for field, value := range filter {
			bm, err := loadBitmap(txn, termKey(tenant, field+"="+value))
			if err != nil {
				return err
			}
			resulting.And(bm)
		}

		seqs = append(seqs, resulting.ToArray()...)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "messagestore: bitmap query failed")
	}

	var msgs []*dwn.StoredMessage
	for _, seq := range seqs {
		v, err := s.log.Get(int64(seq))
		if err != nil {
			if margaret.IsErrNulled(err) {
				continue
			}
			return nil, errors.Wrapf(err, "messagestore: failed to read log entry %d", seq)
		}
		if errv, ok := v.(error); ok {
			if margaret.IsErrNulled(errv) {
				continue
			}
			return nil, errors.Wrapf(errv, "messagestore: bad log entry %d", seq)
		}

		msg, ok := v.(*dwn.StoredMessage)
		if !ok {
			return nil, errors.Errorf("messagestore: unexpected log entry type %T at %d", v, seq)
		}
		if !matchesFilter(msg, filter) {
			continue
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

func matchesFilter(msg *dwn.StoredMessage, filter dwn.Filter) bool {
	for field, want := range filter {
		if fieldValue(&msg.Descriptor, field) != want {
			return false
		}
	}
	return true
}

// Delete nulls the message's log entry and clears its index bits.
// Deleting an absent cid is a no-op.
func (s *Store) Delete(ctx context.Context, tenant dwn.DID, cid dwn.Cid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var seq int64 = margaret.SeqEmpty
	err := s.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(cidKey(tenant, cid))
		if errors.Is(getErr, badger.ErrKeyNotFound) {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		buf, copyErr := item.ValueCopy(nil)
		if copyErr != nil {
			return copyErr
		}
		seq = int64(binary.BigEndian.Uint64(buf))
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "messagestore: delete lookup failed")
	}
	if seq == margaret.SeqEmpty {
		return nil
	}

	var terms = []string{termAll}
	v, err := s.log.Get(seq)
	if err == nil {
		if msg, ok := v.(*dwn.StoredMessage); ok {
			terms = messageTerms(msg)
		}
	} else if !margaret.IsErrNulled(err) {
		return errors.Wrapf(err, "messagestore: failed to read log entry %d", seq)
	}

	if err := s.log.Null(seq); err != nil {
		return errors.Wrapf(err, "messagestore: failed to null log entry %d", seq)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(cidKey(tenant, cid)); err != nil {
			return err
		}
		for _, term := range terms {
			bm, err := loadBitmap(txn, termKey(tenant, term))
			if err != nil {
				return err
			}
			bm.Remove(uint64(seq))
			if err := txn.Set(termKey(tenant, term), bm.ToBuffer()); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "messagestore: failed to unindex message")
}

// catchupIndex replays log entries the index marker has not covered,
// which heals a db that lags behind the log (or was wiped).
func (s *Store) catchupIndex() error {
	var next int64
	err := s.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get([]byte(keyNextSeq))
		if errors.Is(getErr, badger.ErrKeyNotFound) {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		buf, copyErr := item.ValueCopy(nil)
		if copyErr != nil {
			return copyErr
		}
		next = int64(binary.BigEndian.Uint64(buf))
		return nil
	})
	if err != nil {
		return err
	}

	last := s.log.Seq()
	if last == margaret.SeqEmpty || next > last {
		return nil
	}

	ctx := context.Background()
	src, err := s.log.Query(margaret.Gte(next), margaret.SeqWrap(true))
	if err != nil {
		return err
	}

	var replayed int
	for {
		v, err := src.Next(ctx)
		if luigi.IsEOS(err) {
			break
		}
		if err != nil {
			return err
		}

		sw, ok := v.(margaret.SeqWrapper)
		if !ok {
			return errors.Errorf("messagestore: expected sequence wrapper, got %T", v)
		}

		seq := sw.Seq()
		val := sw.Value()

		if errv, ok := val.(error); ok {
			if margaret.IsErrNulled(errv) {
				continue
			}
			return errv
		}

		msg, ok := val.(*dwn.StoredMessage)
		if !ok {
			return errors.Errorf("messagestore: unexpected log entry type %T at %d", val, seq)
		}

		tenant := msg.Tenant
		mcid, err := msg.Cid()
		if err != nil {
			return err
		}

		err = s.db.Update(func(txn *badger.Txn) error {
			return indexMessage(txn, tenant, msg, mcid, seq)
		})
		if err != nil {
			return err
		}
		replayed++
	}

	if replayed > 0 {
		level.Info(s.logger).Log("event", "index catchup", "replayed", replayed)
	}
	return nil
}

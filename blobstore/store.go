// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

// Package blobstore implements the content-addressed payload store on
// the filesystem: sha256 fan-out directories per tenant, written
// tmp-file-then-rename so a crashed write never leaves a torn blob.
// Payloads are only served through a message that references them.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dwnode/go-dwn"
)

type blobStore struct {
	basePath string
}

var _ dwn.BlobStore = (*blobStore)(nil)

// New creates the store rooted at basePath.
func New(basePath string) (dwn.BlobStore, error) {
	err := os.MkdirAll(filepath.Join(basePath, "tmp"), 0700)
	if err != nil {
		return nil, errors.Wrap(err, "blobstore: error making tmp dir")
	}

	return &blobStore{basePath: basePath}, nil
}

func tenantDir(tenant dwn.DID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(tenant))
}

func (store *blobStore) contentPath(tenant dwn.DID, dataCid dwn.Cid) (string, error) {
	if dataCid.Algo != dwn.CidAlgoSHA256 {
		return "", errors.Errorf("blobstore: unknown hash algorithm %q", dataCid.Algo)
	}
	if len(dataCid.Hash) != sha256.Size {
		return "", errors.Errorf("blobstore: expected hash length %d, got %d", sha256.Size, len(dataCid.Hash))
	}

	hexHash := hex.EncodeToString(dataCid.Hash)
	return filepath.Join(store.basePath, tenantDir(tenant), dataCid.Algo, hexHash[:2], hexHash[2:]), nil
}

func (store *blobStore) refPath(tenant dwn.DID, messageCid dwn.Cid) string {
	return filepath.Join(store.basePath, tenantDir(tenant), "refs", hex.EncodeToString(messageCid.Hash))
}

func (store *blobStore) tmpPath() string {
	return filepath.Join(store.basePath, "tmp", fmt.Sprint(time.Now().UnixNano()))
}

func (store *blobStore) Put(ctx context.Context, tenant dwn.DID, messageCid dwn.Cid, data io.Reader) (dwn.Cid, int64, error) {
	tmp := store.tmpPath()

	f, err := os.Create(tmp)
	if err != nil {
		return dwn.Cid{}, 0, errors.Wrapf(err, "blobstore: error creating tmp file at %q", tmp)
	}

	h := sha256.New()
	size, err := io.Copy(f, io.TeeReader(data, h))
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return dwn.Cid{}, 0, errors.Wrap(err, "blobstore: error copying blob data")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return dwn.Cid{}, 0, errors.Wrap(err, "blobstore: error closing tmp file")
	}

	dataCid := dwn.Cid{Hash: h.Sum(nil), Algo: dwn.CidAlgoSHA256}

	finalPath, err := store.contentPath(tenant, dataCid)
	if err != nil {
		os.Remove(tmp)
		return dwn.Cid{}, 0, err
	}
	if err := os.MkdirAll(filepath.Dir(finalPath), 0700); err != nil {
		os.Remove(tmp)
		return dwn.Cid{}, 0, errors.Wrap(err, "blobstore: error making content dir")
	}
	if err := os.Rename(tmp, finalPath); err != nil {
		os.Remove(tmp)
		return dwn.Cid{}, 0, errors.Wrapf(err, "blobstore: error moving blob from %q to %q", tmp, finalPath)
	}

	refPath := store.refPath(tenant, messageCid)
	if err := os.MkdirAll(filepath.Dir(refPath), 0700); err != nil {
		return dwn.Cid{}, 0, errors.Wrap(err, "blobstore: error making refs dir")
	}
	if err := os.WriteFile(refPath, []byte(dataCid.String()), 0600); err != nil {
		return dwn.Cid{}, 0, errors.Wrap(err, "blobstore: error writing message ref")
	}

	return dataCid, size, nil
}

func (store *blobStore) Get(ctx context.Context, tenant dwn.DID, messageCid, dataCid dwn.Cid) (io.ReadCloser, error) {
	refd, err := os.ReadFile(store.refPath(tenant, messageCid))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dwn.ErrNoSuchBlob
		}
		return nil, errors.Wrap(err, "blobstore: error reading message ref")
	}

	// the message must actually reference this content
	if strings.TrimSpace(string(refd)) != dataCid.String() {
		return nil, dwn.ErrNoSuchBlob
	}

	blobPath, err := store.contentPath(tenant, dataCid)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(blobPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dwn.ErrNoSuchBlob
		}
		return nil, errors.Wrapf(err, "blobstore: error opening %q", blobPath)
	}
	return f, nil
}

func (store *blobStore) Delete(ctx context.Context, tenant dwn.DID, messageCid dwn.Cid) error {
	refPath := store.refPath(tenant, messageCid)

	refd, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // nothing referenced, nothing to do
		}
		return errors.Wrap(err, "blobstore: error reading message ref")
	}

	if err := os.Remove(refPath); err != nil {
		return errors.Wrap(err, "blobstore: error removing message ref")
	}

	dataCid, err := dwn.ParseCid(strings.TrimSpace(string(refd)))
	if err != nil {
		return errors.Wrap(err, "blobstore: corrupt message ref")
	}

	// drop the content only once no other message references it
	still, err := store.isReferenced(tenant, dataCid)
	if err != nil {
		return err
	}
	if still {
		return nil
	}

	blobPath, err := store.contentPath(tenant, dataCid)
	if err != nil {
		return err
	}
	if err := os.Remove(blobPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "blobstore: error removing %q", blobPath)
	}
	return nil
}

func (store *blobStore) isReferenced(tenant dwn.DID, dataCid dwn.Cid) (bool, error) {
	refsDir := filepath.Join(store.basePath, tenantDir(tenant), "refs")

	entries, err := os.ReadDir(refsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "blobstore: error listing refs")
	}

	want := dataCid.String()
	for _, entry := range entries {
		refd, err := os.ReadFile(filepath.Join(refsDir, entry.Name()))
		if err != nil {
			return false, errors.Wrap(err, "blobstore: error reading ref")
		}
		if strings.TrimSpace(string(refd)) == want {
			return true, nil
		}
	}
	return false, nil
}

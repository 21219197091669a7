// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package repo

import (
	"os"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
)

func badgerOpts(dbPath string) badger.Options {
	return badger.DefaultOptions(dbPath).
		WithMemTableSize(1 << 25).
		WithValueLogFileSize(1 << 25).
		WithNumMemtables(10).
		WithNumCompactors(2).
		WithLogger(nil)
}

// OpenIndex opens the named badger database under the repo's indexes
// directory, creating it if needed.
func OpenIndex(r Interface, name string) (*badger.DB, error) {
	dbPath := r.GetPath("indexes", name)
	if err := os.MkdirAll(dbPath, 0700); err != nil {
		return nil, errors.Wrapf(err, "repo: error making index directory %q", dbPath)
	}

	db, err := badger.Open(badgerOpts(dbPath))
	if err != nil {
		return nil, errors.Wrapf(err, "repo: failed to open badger db %q", name)
	}
	return db, nil
}

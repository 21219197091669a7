// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package repo

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/ssbc/margaret"
	"github.com/ssbc/margaret/offset2"
)

// Log is the append-only receive log of a repository. Entries can be
// nulled in place but never removed, sequence numbers are stable.
type Log interface {
	margaret.Log
	margaret.Alterer
	io.Closer
}

// OpenLog opens the receive log stored under the repo's log directory.
func OpenLog(r Interface, cdc margaret.Codec) (Log, error) {
	logPath := r.GetPath("log")
	if err := os.MkdirAll(logPath, 0700); err != nil {
		return nil, errors.Wrapf(err, "repo: error making log directory %q", logPath)
	}

	log, err := offset2.Open(logPath, cdc)
	if err != nil {
		return nil, errors.Wrap(err, "repo: failed to open receive log")
	}
	return log, nil
}

// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

// Package repo knows how a node's state is laid out on disk.
package repo

import (
	"path/filepath"
)

type Interface interface {
	GetPath(...string) string
}

var _ Interface = repo{}

// New creates a repository value rooted at basePath.
func New(basePath string) Interface {
	return repo{basePath: basePath}
}

type repo struct {
	basePath string
}

func (r repo) GetPath(rel ...string) string {
	return filepath.Join(append([]string{r.basePath}, rel...)...)
}

// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

//go:build !darwin && !windows
// +build !darwin,!windows

package dwn

import "os"

// SecretPerms are the file permissions for holding secrets.
// We expect the file to only be accessable by the owner.
var SecretPerms = os.FileMode(0400)

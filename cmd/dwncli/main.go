// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

// dwncli drives a local decentralized web node repository from the
// command line: key management, record writes and reads, protocol
// configuration.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	kitlog "go.mindeco.de/log"
	"go.mindeco.de/log/level"

	cli "github.com/urfave/cli/v2"

	"github.com/dwnode/go-dwn"
	"github.com/dwnode/go-dwn/node"
)

// Version and Build are set by ldflags
var (
	Version = "snapshot"
	Build   = ""
)

var log kitlog.Logger

func init() {
	log = kitlog.NewLogfmtLogger(os.Stderr)
}

func defaultRepoPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".go-dwn"
	}
	return filepath.Join(home, ".go-dwn")
}

var app = cli.App{
	Name:    "dwncli",
	Usage:   "work with a local decentralized web node repository",
	Version: "alpha1",

	Flags: []cli.Flag{
		&cli.StringFlag{Name: "repo", Value: defaultRepoPath(), Usage: "repository location"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"vv"}, Usage: "print debug logging"},
	},

	Commands: []*cli.Command{
		keygenCmd,
		writeCmd,
		readCmd,
		deleteCmd,
		protocolsCmd,
	},
}

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("%s (rev: %s, built: %s)\n", c.App.Version, Version, Build)
	}

	if err := app.Run(os.Args); err != nil {
		level.Error(log).Log("err", err)
		os.Exit(1)
	}
}

func secretPath(ctx *cli.Context) string {
	return filepath.Join(ctx.String("repo"), "secret")
}

func loadKeyPair(ctx *cli.Context) (*dwn.KeyPair, error) {
	return dwn.LoadKeyPair(secretPath(ctx))
}

func openNode(ctx *cli.Context) (*node.Node, error) {
	info := kitlog.NewNopLogger()
	if ctx.Bool("verbose") {
		info = log
	}
	return node.New(
		node.WithRepoPath(ctx.String("repo")),
		node.WithInfo(info),
	)
}

var keygenCmd = &cli.Command{
	Name:  "keygen",
	Usage: "Generate the repository's identity keypair",
	Action: func(ctx *cli.Context) error {
		kp, err := dwn.NewKeyPair(nil)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(ctx.String("repo"), 0700); err != nil {
			return err
		}
		if err := dwn.SaveKeyPair(kp, secretPath(ctx)); err != nil {
			return err
		}

		log.Log("event", "keypair generated", "path", secretPath(ctx))
		fmt.Fprintln(os.Stdout, kp.Id.String())
		return nil
	},
}

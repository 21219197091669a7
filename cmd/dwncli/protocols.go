// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v2"

	"github.com/dwnode/go-dwn"
	"github.com/dwnode/go-dwn/message"
)

var protocolsCmd = &cli.Command{
	Name:  "protocols",
	Usage: "Manage the protocol definitions of the node",
	Subcommands: []*cli.Command{
		protocolsConfigureCmd,
		protocolsQueryCmd,
	},
}

var protocolsConfigureCmd = &cli.Command{
	Name:      "configure",
	Usage:     "Install a protocol definition, JSON is read from stdin",
	ArgsUsage: "<protocol>",
	Description: `Install a protocol definition, JSON is read from stdin.

Example:

    echo '{"published":true}' | dwncli protocols configure chat`,
	Action: func(ctx *cli.Context) error {
		protocol := ctx.Args().First()
		if protocol == "" {
			return fmt.Errorf("configure: missing protocol argument")
		}

		var definition json.RawMessage
		if err := json.NewDecoder(os.Stdin).Decode(&definition); err != nil {
			return fmt.Errorf("configure: invalid json input from stdin: %w", err)
		}

		kp, err := loadKeyPair(ctx)
		if err != nil {
			return err
		}

		pc, err := message.CreateProtocolsConfigure(message.ProtocolsConfigureOptions{
			Protocol:   protocol,
			Definition: definition,
			Signer:     kp,
		})
		if err != nil {
			return err
		}

		n, err := openNode(ctx)
		if err != nil {
			return err
		}
		defer n.Close()

		raw, err := rawOf(pc.Message())
		if err != nil {
			return err
		}

		reply := n.HandleMessage(context.Background(), kp.Id, raw)
		if reply.Status.Code != dwn.StatusOK {
			return fmt.Errorf("configure: %d %s", reply.Status.Code, reply.Status.Detail)
		}

		log.Log("event", "configured", "protocol", protocol)
		return nil
	},
}

var protocolsQueryCmd = &cli.Command{
	Name:  "query",
	Usage: "List configured protocol definitions as JSON",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "protocol", Value: "", Usage: "only list this protocol"},
	},
	Action: func(ctx *cli.Context) error {
		kp, err := loadKeyPair(ctx)
		if err != nil {
			return err
		}

		filter := dwn.Filter{}
		if p := ctx.String("protocol"); p != "" {
			filter["protocol"] = p
		}

		pq, err := message.CreateProtocolsQuery(message.ProtocolsQueryOptions{
			Filter: filter,
			Signer: kp,
		})
		if err != nil {
			return err
		}

		n, err := openNode(ctx)
		if err != nil {
			return err
		}
		defer n.Close()

		raw, err := rawOf(pq.Message())
		if err != nil {
			return err
		}

		reply := n.HandleMessage(context.Background(), kp.Id, raw)
		if reply.Status.Code != dwn.StatusOK {
			return fmt.Errorf("query: %d %s", reply.Status.Code, reply.Status.Detail)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reply.Entries)
	},
}

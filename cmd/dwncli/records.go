// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v2"

	"github.com/dwnode/go-dwn"
	"github.com/dwnode/go-dwn/message"
)

var writeCmd = &cli.Command{
	Name:      "write",
	Usage:     "Write a record, data is read from stdin",
	ArgsUsage: "<recordId>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "published", Usage: "make the record readable by anyone"},
		&cli.StringFlag{Name: "format", Value: "application/octet-stream", Usage: "data format of the payload"},
		&cli.StringFlag{Name: "protocol", Value: "", Usage: "protocol the record belongs to"},
	},
	Action: func(ctx *cli.Context) error {
		recordID := ctx.Args().First()
		if recordID == "" {
			return fmt.Errorf("write: missing recordId argument")
		}

		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("write: failed to read payload from stdin: %w", err)
		}

		kp, err := loadKeyPair(ctx)
		if err != nil {
			return err
		}

		opts := message.RecordsWriteOptions{
			RecordID:   recordID,
			DataCID:    dwn.NewCidForContent(payload),
			DataFormat: ctx.String("format"),
			Protocol:   ctx.String("protocol"),
			Signer:     kp,
		}
		if ctx.Bool("published") {
			t := true
			opts.Published = &t
		}

		rw, err := message.CreateRecordsWrite(opts)
		if err != nil {
			return err
		}

		n, err := openNode(ctx)
		if err != nil {
			return err
		}
		defer n.Close()

		raw, err := rawOf(rw.Message())
		if err != nil {
			return err
		}
		raw.Data = bytes.NewReader(payload)

		reply := n.HandleMessage(context.Background(), kp.Id, raw)
		if reply.Status.Code != dwn.StatusOK {
			return fmt.Errorf("write: %d %s", reply.Status.Code, reply.Status.Detail)
		}

		log.Log("event", "written", "recordId", recordID, "bytes", len(payload))
		return nil
	},
}

var readCmd = &cli.Command{
	Name:      "read",
	Usage:     "Read a record's payload to stdout",
	ArgsUsage: "<recordId>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "anonymous", Usage: "read without signing the request"},
	},
	Action: func(ctx *cli.Context) error {
		recordID := ctx.Args().First()
		if recordID == "" {
			return fmt.Errorf("read: missing recordId argument")
		}

		kp, err := loadKeyPair(ctx)
		if err != nil {
			return err
		}

		var signer dwn.Signer
		if !ctx.Bool("anonymous") {
			signer = kp
		}

		rr, err := message.CreateRecordsRead(message.RecordsReadOptions{
			RecordID: recordID,
			Signer:   signer,
		})
		if err != nil {
			return err
		}

		n, err := openNode(ctx)
		if err != nil {
			return err
		}
		defer n.Close()

		raw, err := rawOf(rr.Message())
		if err != nil {
			return err
		}

		reply := n.HandleMessage(context.Background(), kp.Id, raw)
		if reply.Status.Code != dwn.StatusOK {
			return fmt.Errorf("read: %d %s", reply.Status.Code, reply.Status.Detail)
		}
		defer reply.Data.Close()

		_, err = io.Copy(os.Stdout, reply.Data)
		return err
	},
}

var deleteCmd = &cli.Command{
	Name:      "delete",
	Usage:     "Tombstone a record",
	ArgsUsage: "<recordId>",
	Action: func(ctx *cli.Context) error {
		recordID := ctx.Args().First()
		if recordID == "" {
			return fmt.Errorf("delete: missing recordId argument")
		}

		kp, err := loadKeyPair(ctx)
		if err != nil {
			return err
		}

		rd, err := message.CreateRecordsDelete(message.RecordsDeleteOptions{
			RecordID: recordID,
			Signer:   kp,
		})
		if err != nil {
			return err
		}

		n, err := openNode(ctx)
		if err != nil {
			return err
		}
		defer n.Close()

		raw, err := rawOf(rd.Message())
		if err != nil {
			return err
		}

		reply := n.HandleMessage(context.Background(), kp.Id, raw)
		if reply.Status.Code != dwn.StatusOK {
			return fmt.Errorf("delete: %d %s", reply.Status.Code, reply.Status.Detail)
		}

		log.Log("event", "deleted", "recordId", recordID)
		return nil
	},
}

func rawOf(msg dwn.StoredMessage) (dwn.RawMessage, error) {
	canonical, err := msg.Descriptor.Canonical()
	if err != nil {
		return dwn.RawMessage{}, err
	}
	return dwn.RawMessage{Descriptor: canonical, Authorization: msg.Authorization}, nil
}

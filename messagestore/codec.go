// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package messagestore

import (
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/ssbc/margaret"

	"github.com/dwnode/go-dwn"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// msgCodec frames *dwn.StoredMessage values for the receive log.
type msgCodec struct{}

var _ margaret.Codec = msgCodec{}

func (msgCodec) Marshal(v interface{}) ([]byte, error) {
	msg, ok := v.(*dwn.StoredMessage)
	if !ok {
		return nil, errors.Errorf("messagestore: expected *dwn.StoredMessage, got %T", v)
	}
	return json.Marshal(msg)
}

func (msgCodec) Unmarshal(data []byte) (interface{}, error) {
	var msg dwn.StoredMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.Wrap(err, "messagestore: failed to decode stored message")
	}
	return &msg, nil
}

func (c msgCodec) NewEncoder(w io.Writer) margaret.Encoder { return msgEncoder{w: w} }
func (c msgCodec) NewDecoder(r io.Reader) margaret.Decoder { return msgDecoder{r: r} }

type msgEncoder struct{ w io.Writer }

func (e msgEncoder) Encode(v interface{}) error {
	data, err := msgCodec{}.Marshal(v)
	if err != nil {
		return err
	}
	_, err = e.w.Write(data)
	return err
}

type msgDecoder struct{ r io.Reader }

func (d msgDecoder) Decode() (interface{}, error) {
	data, err := io.ReadAll(d.r)
	if err != nil {
		return nil, err
	}
	return msgCodec{}.Unmarshal(data)
}

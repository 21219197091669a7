// SPDX-FileCopyrightText: 2023 The Go-DWN Authors
//
// SPDX-License-Identifier: MIT

package dwn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCidRoundtrip(t *testing.T) {
	r := require.New(t)

	c := NewCidForContent([]byte("hello, node"))
	r.False(c.IsZero())
	r.Equal(CidAlgoSHA256, c.Algo)

	parsed, err := ParseCid(c.String())
	r.NoError(err)
	r.True(c.Equal(parsed))
}

func TestParseCidRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"noSuffix",
		"tooShort.sha256",
		"AAAA.md5",
		"!!notbase64!!.sha256",
	}
	for _, tc := range cases {
		_, err := ParseCid(tc)
		assert.Error(t, err, "input %q", tc)
	}
}

func TestCompareCidsIsSymmetric(t *testing.T) {
	a := assert.New(t)

	one := NewCidForContent([]byte("one"))
	two := NewCidForContent([]byte("two"))

	a.Equal(0, CompareCids(one, one))
	a.Equal(-CompareCids(one, two), CompareCids(two, one))
}

func TestCidJSON(t *testing.T) {
	r := require.New(t)

	c := NewCidForContent([]byte("payload"))
	text, err := c.MarshalText()
	r.NoError(err)

	var back Cid
	r.NoError(back.UnmarshalText(text))
	r.True(c.Equal(back))
}

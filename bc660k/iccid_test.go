// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

package bc660k_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nbiot-go/modem/at"
	"github.com/nbiot-go/modem/bc660k"
	"github.com/stretchr/testify/assert"
)

func TestReadICCID(t *testing.T) {
	patterns := []struct {
		name  string
		rsp   []string
		iccid string
		err   error
	}{
		{
			"ok",
			[]string{"+QCCID: 8955000000000000000\r\n", "OK\r\n"},
			"8955000000000000000",
			nil,
		},
		{
			"full length",
			[]string{"\r\n+QCCID: 89550000000000000001\r\n\r\nOK\r\n"},
			"89550000000000000001",
			nil,
		},
		{
			"truncated",
			[]string{"+QCCID: 8955000000000000000123\r\n", "OK\r\n"},
			"89550000000000000001",
			nil,
		},
		{
			"trailing cruft",
			[]string{"+QCCID: 8955000000000000000 extra\r\n", "OK\r\n"},
			"8955000000000000000",
			nil,
		},
		{
			"empty",
			[]string{"+QCCID: \r\n", "OK\r\n"},
			"",
			bc660k.ErrEmptyResponse,
		},
		{
			"no info",
			[]string{"OK\r\n"},
			"",
			bc660k.ErrEmptyResponse,
		},
		{
			"no sim",
			[]string{"+CME ERROR: 10\r\n"},
			"",
			at.CMEError("10"),
		},
		{
			"timeout",
			[]string{""},
			"",
			bc660k.ErrTransportTimeout,
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			d, mm, _ := setupDevice(t, map[string][]string{"AT+QCCID\r\n": p.rsp})
			iccid, err := d.ReadICCID(context.Background())
			assert.True(t, errors.Is(err, p.err), err)
			assert.Equal(t, p.iccid, iccid)
			assert.LessOrEqual(t, len(iccid), bc660k.MaxICCIDLen)
			assert.Equal(t, 0, mm.flushCount())
		}
		t.Run(p.name, f)
	}
}

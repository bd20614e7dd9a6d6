// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

package bc660k_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nbiot-go/modem/at"
	"github.com/nbiot-go/modem/bc660k"
	"github.com/stretchr/testify/assert"
)

func TestRSSIToDBm(t *testing.T) {
	for code := 0; code <= 31; code++ {
		dbm, ok := bc660k.RSSIToDBm(code)
		assert.True(t, ok, code)
		assert.Equal(t, -113+2*code, dbm, code)
	}
	for _, code := range []int{-1, 32, 98, 99, 199} {
		f := func(t *testing.T) {
			dbm, ok := bc660k.RSSIToDBm(code)
			assert.False(t, ok)
			assert.Equal(t, 0, dbm)
		}
		t.Run(fmt.Sprintf("unknown %d", code), f)
	}
}

func TestReadSignalQuality(t *testing.T) {
	patterns := []struct {
		name string
		rsp  []string
		dbm  int
		err  error
	}{
		{"typical", []string{"+CSQ: 15,99\r\n", "OK\r\n"}, -83, nil},
		{"min", []string{"+CSQ: 0,0\r\n", "OK\r\n"}, -113, nil},
		{"max", []string{"+CSQ: 31,0\r\n", "OK\r\n"}, -51, nil},
		{"no ber", []string{"+CSQ: 20\r\n", "OK\r\n"}, -73, nil},
		{"unknown", []string{"+CSQ: 99,99\r\n", "OK\r\n"}, 0, bc660k.ErrUnknownSignalCode},
		{"out of range", []string{"+CSQ: 32,99\r\n", "OK\r\n"}, 0, bc660k.ErrUnknownSignalCode},
		{"not numeric", []string{"+CSQ: x,99\r\n", "OK\r\n"}, 0, bc660k.ErrMalformedResponse},
		{"empty", []string{"+CSQ:\r\n", "OK\r\n"}, 0, bc660k.ErrMalformedResponse},
		{"no info", []string{"OK\r\n"}, 0, bc660k.ErrEmptyResponse},
		{"error", []string{"ERROR\r\n"}, 0, at.ErrError},
		{"timeout", []string{""}, 0, bc660k.ErrTransportTimeout},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			d, _, _ := setupDevice(t, map[string][]string{"AT+CSQ\r\n": p.rsp})
			dbm, err := d.ReadSignalQuality(context.Background())
			assert.True(t, errors.Is(err, p.err), err)
			assert.Equal(t, p.dbm, dbm)
		}
		t.Run(p.name, f)
	}
}

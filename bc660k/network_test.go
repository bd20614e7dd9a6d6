// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

package bc660k_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nbiot-go/modem/at"
	"github.com/nbiot-go/modem/bc660k"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAPN(t *testing.T) {
	patterns := []struct {
		name string
		apn  bc660k.APNProfile
		cmd  string
	}{
		{
			"name only",
			bc660k.APNProfile{PDPType: bc660k.PDPTypeIP, Name: "iot.example"},
			"AT+QCGDEFCONT=\"IP\",\"iot.example\"\r\n",
		},
		{
			"credentials",
			bc660k.APNProfile{PDPType: bc660k.PDPTypeIPv4v6, Name: "iot.example", Username: "user", Password: "pass"},
			"AT+QCGDEFCONT=\"IPV4V6\",\"iot.example\",\"user\",\"pass\"\r\n",
		},
		{
			"username only",
			bc660k.APNProfile{PDPType: bc660k.PDPTypeIPv6, Name: "iot.example", Username: "user"},
			"AT+QCGDEFCONT=\"IPV6\",\"iot.example\"\r\n",
		},
		{
			"password only",
			bc660k.APNProfile{PDPType: bc660k.PDPTypeNonIP, Name: "nidd", Password: "pass"},
			"AT+QCGDEFCONT=\"Non-IP\",\"nidd\"\r\n",
		},
		{
			"empty name",
			bc660k.APNProfile{PDPType: bc660k.PDPTypeIP},
			"AT+QCGDEFCONT=\"IP\",\"\"\r\n",
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			checkConfigure(t, p.cmd, func(ctx context.Context, d *bc660k.Device) error {
				return d.SetAPN(ctx, p.apn)
			})
		}
		t.Run(p.name, f)
	}
}

func TestSetAPNInvalid(t *testing.T) {
	patterns := []struct {
		name string
		apn  bc660k.APNProfile
	}{
		{"no pdp type", bc660k.APNProfile{Name: "iot.example"}},
		{"pdp type", bc660k.APNProfile{PDPType: "PPP", Name: "iot.example"}},
		{"name quote", bc660k.APNProfile{PDPType: bc660k.PDPTypeIP, Name: "iot\"example"}},
		{"user quote", bc660k.APNProfile{PDPType: bc660k.PDPTypeIP, Name: "iot", Username: "u\"", Password: "p"}},
		{"pass quote", bc660k.APNProfile{PDPType: bc660k.PDPTypeIP, Name: "iot", Username: "u", Password: "\""}},
		{"unused pass quote", bc660k.APNProfile{PDPType: bc660k.PDPTypeIP, Name: "iot", Password: "\""}},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			d, mm, _ := setupDevice(t, nil)
			err := d.SetAPN(context.Background(), p.apn)
			assert.True(t, errors.Is(err, bc660k.ErrInvalidParameter), err)
			assert.Nil(t, mm.written())
		}
		t.Run(p.name, f)
	}
}

func TestSetBand(t *testing.T) {
	patterns := []struct {
		name string
		band bc660k.Band
		cmd  string
	}{
		{"all", bc660k.BandAll, "AT+QBAND=0\r\n"},
		{"restricted", bc660k.BandRestricted, "AT+QBAND=2,3,28\r\n"},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			checkConfigure(t, p.cmd, func(ctx context.Context, d *bc660k.Device) error {
				return d.SetBand(ctx, p.band)
			})
		}
		t.Run(p.name, f)
	}

	d, mm, _ := setupDevice(t, nil)
	err := d.SetBand(context.Background(), 2)
	assert.True(t, errors.Is(err, bc660k.ErrInvalidParameter), err)
	assert.Nil(t, mm.written())
}

func TestSetBands(t *testing.T) {
	patterns := []struct {
		name  string
		bands []int
		cmd   string
	}{
		{"all", nil, "AT+QBAND=0\r\n"},
		{"one", []int{20}, "AT+QBAND=1,20\r\n"},
		{"several", []int{8, 20, 28}, "AT+QBAND=3,8,20,28\r\n"},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			checkConfigure(t, p.cmd, func(ctx context.Context, d *bc660k.Device) error {
				return d.SetBands(ctx, p.bands...)
			})
		}
		t.Run(p.name, f)
	}
}

func TestSetBandsInvalid(t *testing.T) {
	patterns := []struct {
		name  string
		bands []int
	}{
		{"unsupported", []int{7}},
		{"negative", []int{-3}},
		{"repeated", []int{3, 28, 3}},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			d, mm, _ := setupDevice(t, nil)
			err := d.SetBands(context.Background(), p.bands...)
			assert.True(t, errors.Is(err, bc660k.ErrInvalidParameter), err)
			assert.Nil(t, mm.written())
		}
		t.Run(p.name, f)
	}
}

func TestEnableNetworkRegistration(t *testing.T) {
	checkConfigure(t, "AT+CEREG=1\r\n", func(ctx context.Context, d *bc660k.Device) error {
		return d.EnableNetworkRegistration(ctx)
	})
}

func TestEnableConnection(t *testing.T) {
	checkConfigure(t, "AT+CSCON=1\r\n", func(ctx context.Context, d *bc660k.Device) error {
		return d.EnableConnection(ctx)
	})
}

func TestOnRegistration(t *testing.T) {
	cmdSet := map[string][]string{
		"AT+CEREG=1\r\n": {"OK\r\n", "+CEREG: 2\r\n"},
	}
	d, mm, hook := setupDevice(t, cmdSet)
	c := make(chan bc660k.RegistrationStatus, 4)
	err := d.OnRegistration(func(s bc660k.RegistrationStatus) {
		c <- s
	})
	require.Nil(t, err)

	err = d.EnableNetworkRegistration(context.Background())
	assert.Nil(t, err)
	mm.r <- []byte("+CEREG: x\r\n+CEREG: 5,\"1A2B\",\"01A2B3C4\",9\r\n")
	for _, expected := range []bc660k.RegistrationStatus{bc660k.RegSearching, bc660k.RegRoaming} {
		select {
		case s := <-c:
			assert.Equal(t, expected, s)
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("no report for %d", expected)
		}
	}
	select {
	case s := <-c:
		t.Errorf("unexpected report: %d", s)
	default:
	}
	var dropped int
	for _, e := range hook.AllEntries() {
		if e.Data["op"] == "registration report" {
			dropped++
			assert.Equal(t, logrus.WarnLevel, e.Level)
		}
	}
	assert.Equal(t, 1, dropped)

	err = d.OnRegistration(func(bc660k.RegistrationStatus) {})
	assert.Equal(t, at.ErrIndicationExists, err)
}

func TestRegistrationStatusRegistered(t *testing.T) {
	patterns := []struct {
		s          bc660k.RegistrationStatus
		registered bool
	}{
		{bc660k.RegNotRegistered, false},
		{bc660k.RegHome, true},
		{bc660k.RegSearching, false},
		{bc660k.RegDenied, false},
		{bc660k.RegUnknown, false},
		{bc660k.RegRoaming, true},
	}
	for _, p := range patterns {
		assert.Equal(t, p.registered, p.s.Registered(), p.s)
	}
}

func TestOnConnection(t *testing.T) {
	d, mm, _ := setupDevice(t, nil)
	c := make(chan bool, 2)
	err := d.OnConnection(func(connected bool) {
		c <- connected
	})
	require.Nil(t, err)
	mm.r <- []byte("+CSCON: 1\r\n+CSCON: 0\r\n")
	for _, expected := range []bool{true, false} {
		select {
		case connected := <-c:
			assert.Equal(t, expected, connected)
		case <-time.After(100 * time.Millisecond):
			t.Fatal("no connection report")
		}
	}
}

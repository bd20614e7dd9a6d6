// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

// nbattach configures a BC660K modem to attach to an NB-IoT network.
//
// Optionally, it then waits for the modem to report registration.
//
// The operator, APN and band are configured, then network registration and
// signalling connection reporting are enabled.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nbiot-go/modem/bc660k"
	"github.com/nbiot-go/modem/serial"
	"github.com/nbiot-go/modem/trace"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var version = "undefined"

func main() {
	dev := flag.String("d", "/dev/ttyUSB0", "path to modem device")
	baud := flag.Int("b", 115200, "baud rate")
	timeout := flag.Duration("t", bc660k.DefaultAckTimeout, "command timeout period")
	oper := flag.String("o", "", "numeric operator code, or automatic selection if empty")
	apn := flag.String("apn", "", "APN name")
	pdp := flag.String("pdp", string(bc660k.PDPTypeIP), "PDP type")
	user := flag.String("user", "", "APN username")
	pass := flag.String("pass", "", "APN password")
	bands := flag.String("bands", "", "comma separated list of bands, or all bands if empty")
	restricted := flag.Bool("r", false, "restrict to bands 3 and 28")
	wait := flag.Duration("w", 0, "time to wait for network registration, or don't wait if zero")
	verbose := flag.Bool("v", false, "log modem interactions")
	vsn := flag.Bool("version", false, "report version and exit")
	flag.Parse()
	if *vsn {
		fmt.Printf("%s %s\n", os.Args[0], version)
		os.Exit(0)
	}
	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	bl, err := parseBands(*bands)
	if err != nil {
		log.Fatal(err)
	}
	m, err := serial.New(serial.WithPort(*dev), serial.WithBaud(*baud))
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()
	var mio io.ReadWriter = m
	if *verbose {
		mio = trace.New(m, trace.WithLogger(log))
	}
	d := bc660k.New(mio, bc660k.WithLogger(log), bc660k.WithAckTimeout(*timeout))
	ctx := context.Background()
	if err = d.Init(ctx); err != nil {
		log.Error(err)
		return
	}
	regs := make(chan bc660k.RegistrationStatus, 8)
	err = d.OnRegistration(func(s bc660k.RegistrationStatus) {
		select {
		case regs <- s:
		default:
		}
	})
	if err != nil {
		log.Error(err)
		return
	}
	err = d.OnConnection(func(connected bool) {
		log.WithField("connected", connected).Info("signalling connection")
	})
	if err != nil {
		log.Error(err)
		return
	}
	sel := bc660k.AutoOperator()
	if *oper != "" {
		sel = bc660k.ManualOperator(*oper)
	}
	steps := []func(context.Context) error{
		func(ctx context.Context) error { return d.SetOperator(ctx, sel) },
		func(ctx context.Context) error {
			return d.SetAPN(ctx, bc660k.APNProfile{
				PDPType:  bc660k.PDPType(*pdp),
				Name:     *apn,
				Username: *user,
				Password: *pass,
			})
		},
		func(ctx context.Context) error {
			if *restricted {
				return d.SetBand(ctx, bc660k.BandRestricted)
			}
			return d.SetBands(ctx, bl...)
		},
		d.EnableNetworkRegistration,
		d.EnableConnection,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			log.Error(err)
			return
		}
	}
	fmt.Println("configured")
	if *wait <= 0 {
		return
	}
	expired := time.After(*wait)
	for {
		select {
		case s := <-regs:
			log.WithField("status", int(s)).Info("registration")
			if s.Registered() {
				fmt.Println("registered")
				return
			}
			if s == bc660k.RegDenied {
				log.Error("registration denied")
				return
			}
		case <-expired:
			log.Error("timed out waiting for registration")
			return
		}
	}
}

func parseBands(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var bands []int
	for _, f := range strings.Split(s, ",") {
		b, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, errors.Wrapf(err, "band %q", f)
		}
		bands = append(bands, b)
	}
	return bands, nil
}

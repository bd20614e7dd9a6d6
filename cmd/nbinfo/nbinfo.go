// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

// nbinfo collects and displays information related to a BC660K modem and its
// current network state.
//
// This serves as an example of how to interact with the modem, as well as
// providing information which may be useful for debugging.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nbiot-go/modem/bc660k"
	"github.com/nbiot-go/modem/serial"
	"github.com/nbiot-go/modem/trace"
	"github.com/sirupsen/logrus"
)

var version = "undefined"

func main() {
	dev := flag.String("d", "/dev/ttyUSB0", "path to modem device")
	baud := flag.Int("b", 115200, "baud rate")
	timeout := flag.Duration("t", bc660k.DefaultQueryTimeout, "query timeout period")
	utc := flag.String("utc", "+0", "UTC offset of the local time zone, in hours")
	setClock := flag.Bool("setclock", false, "set the host clock from network time")
	ucs2 := flag.Bool("ucs2", false, "use the UCS2 character set")
	list := flag.Bool("l", false, "list serial ports and exit")
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
	if *list {
		ports, err := serial.Ports()
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}
	offset, err := bc660k.ParseUTCOffset(*utc)
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
	options := []bc660k.Option{
		bc660k.WithLogger(log),
		bc660k.WithQueryTimeout(*timeout),
	}
	if *ucs2 {
		options = append(options, bc660k.WithCharset(bc660k.CharsetUCS2))
	}
	d := bc660k.New(mio, options...)
	ctx := context.Background()
	if err = d.Init(ctx); err != nil {
		log.Error(err)
		return
	}
	if iccid, err := d.ReadICCID(ctx); err == nil {
		fmt.Printf("ICCID:    %s\n", iccid)
	}
	if oper, err := d.ReadCurrentOperator(ctx); err == nil {
		fmt.Printf("Operator: %s\n", oper)
	}
	if dbm, err := d.ReadSignalQuality(ctx); err == nil {
		fmt.Printf("Signal:   %d dBm\n", dbm)
	}
	if *setClock {
		if t, err := d.ReadCurrentDateTime(ctx, offset); err == nil {
			fmt.Printf("Time:     %s (host clock set)\n", t.Format(time.RFC3339))
		}
		return
	}
	if nt, err := d.ReadNetworkTime(ctx); err == nil {
		fmt.Printf("Time:     %s\n", nt.In(offset).Format(time.RFC3339))
	}
}

// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

package bc660k

//go:generate go tool mockgen -source=clock.go -destination=mock_clock_test.go -package=bc660k_test

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nbiot-go/modem/info"
	"github.com/pkg/errors"
)

// Clock is the host clock set from network time.
type Clock interface {
	SetTime(t time.Time) error
}

// SystemClock sets the system clock of the host.
//
// Setting the system clock typically requires elevated privileges.
type SystemClock struct{}

// SetTime sets the system clock to t.
func (SystemClock) SetTime(t time.Time) error {
	return setSystemTime(t)
}

// UTCOffset is the offset of local time from UTC, in hours.
type UTCOffset int

const (
	// MinUTCOffset is the most westerly UTC offset.
	MinUTCOffset UTCOffset = -12

	// MaxUTCOffset is the most easterly UTC offset.
	MaxUTCOffset UTCOffset = 14
)

// ParseUTCOffset parses a signed offset in hours, such as "-3" or "+10".
func ParseUTCOffset(s string) (UTCOffset, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidParameter, "UTC offset %q", s)
	}
	o := UTCOffset(v)
	if err := o.validate(); err != nil {
		return 0, err
	}
	return o, nil
}

func (o UTCOffset) validate() error {
	if o < MinUTCOffset || o > MaxUTCOffset {
		return errors.Wrapf(ErrInvalidParameter, "UTC offset %d out of range", o)
	}
	return nil
}

// Location returns the fixed zone for the offset.
func (o UTCOffset) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", int(o)), int(o)*3600)
}

// NetworkTime is the UTC time reported by the modem, as synchronised from the
// network.
type NetworkTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int

	// Zone is the time zone suffix as reported by the modem, such as "+00"
	// (quarter hours) or "GMT+8". It is informational only.
	Zone string
}

// In returns the network time viewed in the zone with the given offset.
//
// The wall clock hour is the reported hour plus the offset, normalised across
// day, month and year boundaries.
func (n NetworkTime) In(o UTCOffset) time.Time {
	t := time.Date(n.Year, time.Month(n.Month), n.Day, n.Hour, n.Minute, n.Second, 0, time.UTC)
	return t.In(o.Location())
}

// ReadNetworkTime returns the time reported by the modem.
func (d *Device) ReadNetworkTime(ctx context.Context) (NetworkTime, error) {
	v, err := d.query(ctx, "read clock", "+CCLK?", "+CCLK")
	if err != nil {
		return NetworkTime{}, err
	}
	n, err := parseCCLK(v)
	if err != nil {
		return NetworkTime{}, d.fail("read clock", "+CCLK?", err)
	}
	return n, nil
}

// ReadCurrentDateTime reads the network time from the modem and sets the host
// clock to it.
//
// The returned time is in the zone with the offset o, so its wall clock is the
// modem time plus o hours. The Clock is given that same instant, which is the
// UTC time reported by the modem, not the local wall clock reinterpreted as
// UTC.
func (d *Device) ReadCurrentDateTime(ctx context.Context, o UTCOffset) (time.Time, error) {
	if err := o.validate(); err != nil {
		return time.Time{}, err
	}
	n, err := d.ReadNetworkTime(ctx)
	if err != nil {
		return time.Time{}, err
	}
	t := n.In(o)
	if err := d.clock.SetTime(t); err != nil {
		err = errors.Wrap(err, "set host clock")
		d.log.WithField("op", "set clock").WithError(err).Warn("failed")
		return time.Time{}, err
	}
	d.log.WithField("op", "set clock").Debugf("set to %s", t.Format(time.RFC3339))
	return t, nil
}

// parseCCLK parses +CCLK info, such as "24/01/15,10:30:00+00", optionally
// preceded by a quoted zone field, as in "+00","24/01/15,10:30:00+00".
//
// A year of zero indicates the modem has no network time.
func parseCCLK(v string) (NetworkTime, error) {
	var n NetworkTime
	body := strings.TrimSpace(v)
	if f := info.Fields(body); len(f) == 2 && isQuoted(f[0]) && isQuoted(f[1]) {
		body = f[1]
	}
	fields := strings.Split(info.Unquote(body), ",")
	if len(fields) != 2 {
		return n, errors.Wrapf(ErrMalformedResponse, "clock %q", v)
	}
	date := strings.Split(fields[0], "/")
	clock := fields[1]
	if idx := strings.IndexAny(clock, "+-G"); idx != -1 {
		n.Zone = clock[idx:]
		clock = clock[:idx]
	}
	tod := strings.Split(clock, ":")
	if len(date) != 3 || len(tod) != 3 {
		return n, errors.Wrapf(ErrMalformedResponse, "clock %q", v)
	}
	dst := []*int{&n.Year, &n.Month, &n.Day, &n.Hour, &n.Minute, &n.Second}
	for i, f := range append(date, tod...) {
		x, err := info.Int(f)
		if err != nil || x < 0 {
			return NetworkTime{}, errors.Wrapf(ErrMalformedResponse, "clock %q", v)
		}
		*dst[i] = x
	}
	if n.Year == 0 {
		return NetworkTime{}, ErrClockUnavailable
	}
	if n.Year < 100 {
		n.Year += 2000
	}
	if n.Hour > 23 || n.Minute > 59 || n.Second > 59 {
		return NetworkTime{}, errors.Wrapf(ErrMalformedResponse, "clock %q out of range", v)
	}
	// time.Date normalises impossible dates, such as 02/31, into the
	// following month.
	t := time.Date(n.Year, time.Month(n.Month), n.Day, n.Hour, n.Minute, n.Second, 0, time.UTC)
	if int(t.Month()) != n.Month || t.Day() != n.Day {
		return NetworkTime{}, errors.Wrapf(ErrMalformedResponse, "clock %q out of range", v)
	}
	return n, nil
}

func isQuoted(field string) bool {
	return len(field) >= 2 && field[0] == '"' && field[len(field)-1] == '"'
}

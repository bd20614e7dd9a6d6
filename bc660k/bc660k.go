// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

// Package bc660k provides the command layer for the Quectel BC660K NB-IoT
// modem.
//
// Each operation formats a single AT command, issues it via the at package,
// and parses the reply into a typed result. Operations are stateless; the
// Device holds only configuration.
package bc660k

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/nbiot-go/modem/at"
	"github.com/nbiot-go/modem/info"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Device decorates the AT modem with BC660K specific functionality.
//
// A Device assumes a single owner. Operations must not be issued concurrently
// by the caller; the device performs no locking of its own.
type Device struct {
	*at.AT
	queryTimeout time.Duration
	ackTimeout   time.Duration
	log          logrus.FieldLogger
	clock        Clock
	charset      Charset
	atOptions    []at.Option
}

// Option is a construction option for a Device.
type Option func(*Device)

const (
	// DefaultQueryTimeout is the time allowed for identity, clock and signal
	// queries.
	DefaultQueryTimeout = 10 * time.Second

	// DefaultAckTimeout is the time allowed for a configuration command to be
	// acknowledged.
	DefaultAckTimeout = 5 * time.Second
)

// New creates a new BC660K device on the modem.
func New(modem io.ReadWriter, options ...Option) *Device {
	d := &Device{
		queryTimeout: DefaultQueryTimeout,
		ackTimeout:   DefaultAckTimeout,
		log:          logrus.StandardLogger(),
		clock:        SystemClock{},
		charset:      CharsetGSM,
	}
	for _, option := range options {
		option(d)
	}
	d.AT = at.New(modem, d.atOptions...)
	return d
}

// WithQueryTimeout sets the timeout for query operations.
func WithQueryTimeout(t time.Duration) Option {
	return func(d *Device) {
		d.queryTimeout = t
	}
}

// WithAckTimeout sets the timeout for configuration operations.
func WithAckTimeout(t time.Duration) Option {
	return func(d *Device) {
		d.ackTimeout = t
	}
}

// WithLogger sets the logger that receives the diagnostic line emitted by
// each operation.
//
// By default the logrus standard logger is used.
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Device) {
		d.log = l
	}
}

// WithClock sets the host clock updated by ReadCurrentDateTime.
func WithClock(c Clock) Option {
	return func(d *Device) {
		d.clock = c
	}
}

// WithCharset sets the character set selected by Init and used to decode
// alphanumeric operator names.
func WithCharset(c Charset) Option {
	return func(d *Device) {
		d.charset = c
	}
}

// WithATOptions passes options through to the underlying AT modem.
func WithATOptions(options ...at.Option) Option {
	return func(d *Device) {
		d.atOptions = append(d.atOptions, options...)
	}
}

// Charset is the TE character set used by the modem for string parameters.
type Charset string

const (
	// CharsetGSM is the GSM 7-bit default alphabet, the modem default.
	CharsetGSM Charset = "GSM"

	// CharsetUCS2 is 16-bit UCS2, hex encoded.
	CharsetUCS2 Charset = "UCS2"
)

// Init initialises the modem and selects the character set.
func (d *Device) Init(ctx context.Context) error {
	if err := d.AT.Init(ctx); err != nil {
		return err
	}
	switch d.charset {
	case CharsetGSM:
		return nil
	case CharsetUCS2:
		return d.configure(ctx, "select charset", `+CSCS="UCS2"`)
	default:
		return errors.Wrapf(ErrInvalidParameter, "charset %q", d.charset)
	}
}

// query issues a command that returns an info line, and returns the value of
// the first line with the given prefix.
func (d *Device) query(ctx context.Context, op, cmd, prefix string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.queryTimeout)
	defer cancel()
	lines, err := d.Command(ctx, cmd)
	if err != nil {
		return "", d.fail(op, cmd, err)
	}
	v, ok := info.Find(lines, prefix)
	if !ok {
		return "", d.fail(op, cmd, ErrEmptyResponse)
	}
	d.log.WithField("op", op).Debugf("AT%s response: %s", cmd, v)
	return v, nil
}

// configure flushes stale input from the modem then issues a command that
// returns no info and awaits the OK.
func (d *Device) configure(ctx context.Context, op, cmd string) error {
	ctx, cancel := context.WithTimeout(ctx, d.ackTimeout)
	defer cancel()
	if err := d.Flush(ctx); err != nil {
		return d.fail(op, cmd, err)
	}
	if _, err := d.Command(ctx, cmd); err != nil {
		return d.fail(op, cmd, err)
	}
	d.log.WithField("op", op).Debug("ok")
	return nil
}

// fail converts an error from the modem into the error returned to the
// caller, and logs it.
func (d *Device) fail(op, cmd string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = ErrTransportTimeout
	}
	err = errors.Wrapf(err, "AT%s", commandID(cmd))
	d.log.WithField("op", op).WithError(err).Warn("failed")
	return err
}

// commandID strips the parameters from a command, so credentials are not
// included in errors or logs.
func commandID(cmd string) string {
	if idx := strings.IndexByte(cmd, '='); idx != -1 {
		return cmd[:idx]
	}
	return cmd
}

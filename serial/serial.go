// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

// Package serial provides a serial port, which provides the io.ReadWriter
// interface, that provides the connection between the at or bc660k packages
// and the physical modem.
package serial

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

// Config contains the configuration applied when opening a port.
type Config struct {
	port        string
	baud        int
	readTimeout time.Duration
}

// Option modifies the Config used to open a port.
type Option func(*Config)

// New creates a serial port.
//
// This is currently a simple wrapper around tarm serial.
//
// The returned port supports Flush, which the at package uses to discard
// stale input before configuration commands.
func New(options ...Option) (*serial.Port, error) {
	cfg := defaultConfig
	for _, option := range options {
		option(&cfg)
	}
	config := &serial.Config{Name: cfg.port, Baud: cfg.baud, ReadTimeout: cfg.readTimeout}
	p, err := serial.OpenPort(config)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.port)
	}
	return p, nil
}

// WithBaud sets the baud rate for the serial port.
//
// The BC660K ships configured for 115200 baud.
func WithBaud(b int) Option {
	return func(c *Config) {
		c.baud = b
	}
}

// WithPort sets the path to the serial port.
func WithPort(p string) Option {
	return func(c *Config) {
		c.port = p
	}
}

// WithReadTimeout sets the read timeout of the port.
//
// The default of zero blocks reads until data is available, which is what
// the line reader in the at package expects.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.readTimeout = d
	}
}

// Ports returns the names of the serial ports present on the host.
func Ports() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "list serial ports")
	}
	return ports, nil
}

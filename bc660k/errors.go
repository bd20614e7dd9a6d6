// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

package bc660k

import "github.com/pkg/errors"

var (
	// ErrTransportTimeout indicates the modem did not complete the command
	// before the deadline.
	//
	// The state of the line is unknown after a timeout. Configuration
	// operations flush the line before issuing their command; callers issuing
	// raw commands should Flush first.
	ErrTransportTimeout = errors.New("transport timeout")

	// ErrEmptyResponse indicates the modem completed a query without
	// returning the expected info.
	ErrEmptyResponse = errors.New("empty response")

	// ErrMalformedResponse indicates the modem returned info that could not
	// be parsed.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrClockUnavailable indicates the modem has not received network time.
	ErrClockUnavailable = errors.New("network time unavailable")

	// ErrClockNotSettable indicates the host clock cannot be set on this
	// platform.
	ErrClockNotSettable = errors.New("host clock not settable")

	// ErrUnknownSignalCode indicates the modem reported a signal quality code
	// that has no calibrated value, such as 99 (not known or not detectable).
	ErrUnknownSignalCode = errors.New("unknown signal code")

	// ErrOperatorNotFound indicates the modem has no current operator.
	ErrOperatorNotFound = errors.New("operator not found")

	// ErrInvalidParameter indicates a parameter cannot be encoded into a
	// command.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// checkString returns an error if the value cannot be embedded in a quoted
// string parameter.
func checkString(name, value string) error {
	for _, c := range value {
		switch c {
		case '"', '\r', '\n':
			return errors.Wrapf(ErrInvalidParameter, "%s contains %q", name, c)
		}
	}
	return nil
}

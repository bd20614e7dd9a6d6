// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

package bc660k

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/warthog618/sms/encoding/ucs2"
)

// OperatorMode selects how the modem chooses the network operator.
type OperatorMode int

const (
	// OperatorAuto lets the modem select the operator.
	OperatorAuto OperatorMode = 0

	// OperatorManual forces the modem to the identified operator.
	OperatorManual OperatorMode = 1
)

// OperatorFormat is the format of an operator identifier.
type OperatorFormat int

const (
	// FormatLongAlpha is the long format alphanumeric operator name.
	FormatLongAlpha OperatorFormat = 0

	// FormatShortAlpha is the short format alphanumeric operator name.
	FormatShortAlpha OperatorFormat = 1

	// FormatNumeric is the numeric MCC/MNC operator code, such as "72403".
	FormatNumeric OperatorFormat = 2
)

// OperatorSelection identifies the operator the modem should register with.
//
// Format and ID are only used in manual mode.
type OperatorSelection struct {
	Mode   OperatorMode
	Format OperatorFormat
	ID     string
}

// AutoOperator returns the selection that lets the modem choose the operator.
func AutoOperator() OperatorSelection {
	return OperatorSelection{Mode: OperatorAuto, Format: FormatNumeric}
}

// ManualOperator returns the selection for the operator with the numeric
// code id.
func ManualOperator(id string) OperatorSelection {
	return OperatorSelection{Mode: OperatorManual, Format: FormatNumeric, ID: id}
}

// command returns the +COPS set command for the selection.
//
// Automatic mode always returns the same command, regardless of Format and ID.
func (s OperatorSelection) command() (string, error) {
	switch s.Mode {
	case OperatorAuto:
		return "+COPS=0", nil
	case OperatorManual:
	default:
		return "", errors.Wrapf(ErrInvalidParameter, "operator mode %d", s.Mode)
	}
	if s.Format < FormatLongAlpha || s.Format > FormatNumeric {
		return "", errors.Wrapf(ErrInvalidParameter, "operator format %d", s.Format)
	}
	if strings.TrimSpace(s.ID) == "" {
		return "", errors.Wrap(ErrInvalidParameter, "operator id required in manual mode")
	}
	if err := checkString("operator id", s.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf(`+COPS=%d,%d,"%s"`, s.Mode, s.Format, s.ID), nil
}

// SetOperator selects the network operator.
func (d *Device) SetOperator(ctx context.Context, s OperatorSelection) error {
	cmd, err := s.command()
	if err != nil {
		return err
	}
	return d.configure(ctx, "set operator", cmd)
}

// ReadCurrentOperator returns the identifier of the operator the modem is
// registered with, in the format currently configured on the modem.
func (d *Device) ReadCurrentOperator(ctx context.Context) (string, error) {
	v, err := d.query(ctx, "read operator", "+COPS?", "+COPS")
	if err != nil {
		return "", err
	}
	oper, err := parseOperator(v)
	if err == nil && d.charset == CharsetUCS2 {
		oper, err = decodeUCS2(oper)
	}
	if err != nil {
		return "", d.fail("read operator", "+COPS?", err)
	}
	return oper, nil
}

// parseOperator returns the operator identifier from +COPS info, which is the
// first quoted field, e.g. 0,2,"72403",9.
func parseOperator(v string) (string, error) {
	start := strings.Index(v, `,"`)
	if start == -1 {
		return "", ErrOperatorNotFound
	}
	oper := v[start+2:]
	end := strings.IndexByte(oper, '"')
	if end == -1 {
		return "", errors.Wrap(ErrMalformedResponse, "unterminated operator")
	}
	return oper[:end], nil
}

// decodeUCS2 decodes a hex encoded UCS2 string.
func decodeUCS2(s string) (string, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return "", errors.Wrapf(ErrMalformedResponse, "operator %q not hex", s)
	}
	r, err := ucs2.Decode(b)
	if err != nil {
		return "", errors.Wrapf(ErrMalformedResponse, "operator %q: %v", s, err)
	}
	return string(r), nil
}

// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

package bc660k

import (
	"context"
	"strings"
)

// MaxICCIDLen is the maximum length of an ICCID.
const MaxICCIDLen = 20

// ReadICCID returns the ICCID of the SIM.
func (d *Device) ReadICCID(ctx context.Context) (string, error) {
	v, err := d.query(ctx, "read iccid", "+QCCID", "+QCCID")
	if err != nil {
		return "", err
	}
	iccid := parseICCID(v)
	if iccid == "" {
		return "", d.fail("read iccid", "+QCCID", ErrEmptyResponse)
	}
	return iccid, nil
}

// parseICCID returns the first token of the +QCCID info, without any line
// terminator, truncated to MaxICCIDLen.
func parseICCID(v string) string {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return ""
	}
	iccid := strings.TrimRight(fields[0], "\r\n")
	if len(iccid) > MaxICCIDLen {
		iccid = iccid[:MaxICCIDLen]
	}
	return iccid
}


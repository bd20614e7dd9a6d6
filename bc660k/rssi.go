// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

package bc660k

import (
	"context"
	"sort"

	"github.com/nbiot-go/modem/info"
	"github.com/pkg/errors"
)

// rssiTable maps the +CSQ rssi code to the calibrated received signal
// strength in dBm.
//
// Codes must be sorted and contiguous.
var rssiTable = [...]struct {
	code int
	dbm  int
}{
	{0, -113},
	{1, -111},
	{2, -109},
	{3, -107},
	{4, -105},
	{5, -103},
	{6, -101},
	{7, -99},
	{8, -97},
	{9, -95},
	{10, -93},
	{11, -91},
	{12, -89},
	{13, -87},
	{14, -85},
	{15, -83},
	{16, -81},
	{17, -79},
	{18, -77},
	{19, -75},
	{20, -73},
	{21, -71},
	{22, -69},
	{23, -67},
	{24, -65},
	{25, -63},
	{26, -61},
	{27, -59},
	{28, -57},
	{29, -55},
	{30, -53},
	{31, -51},
}

// RSSIToDBm returns the received signal strength, in dBm, corresponding to
// the rssi code reported by +CSQ.
//
// The return flag is false if the code has no calibrated value, such as 99.
func RSSIToDBm(code int) (int, bool) {
	i := sort.Search(len(rssiTable), func(i int) bool {
		return rssiTable[i].code >= code
	})
	if i < len(rssiTable) && rssiTable[i].code == code {
		return rssiTable[i].dbm, true
	}
	return 0, false
}

// ReadSignalQuality returns the received signal strength in dBm.
//
// If the modem reports a code with no calibrated value, such as when the
// signal is not known or not detectable, ErrUnknownSignalCode is returned.
func (d *Device) ReadSignalQuality(ctx context.Context) (int, error) {
	v, err := d.query(ctx, "read signal quality", "+CSQ", "+CSQ")
	if err != nil {
		return 0, err
	}
	dbm, err := parseCSQ(v)
	if err != nil {
		return 0, d.fail("read signal quality", "+CSQ", err)
	}
	return dbm, nil
}

// parseCSQ maps the rssi field of +CSQ info, e.g. 15,99, to dBm.
func parseCSQ(v string) (int, error) {
	code, err := info.Int(info.Fields(v)[0])
	if err != nil {
		return 0, errors.Wrap(ErrMalformedResponse, err.Error())
	}
	dbm, ok := RSSIToDBm(code)
	if !ok {
		return 0, errors.Wrapf(ErrUnknownSignalCode, "rssi %d", code)
	}
	return dbm, nil
}

// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

package bc660k

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nbiot-go/modem/info"
	"github.com/pkg/errors"
)

// PDPType is the packet data protocol type of a PDN connection.
type PDPType string

const (
	// PDPTypeIP is IPv4.
	PDPTypeIP PDPType = "IP"

	// PDPTypeIPv6 is IPv6.
	PDPTypeIPv6 PDPType = "IPV6"

	// PDPTypeIPv4v6 is dual stack.
	PDPTypeIPv4v6 PDPType = "IPV4V6"

	// PDPTypeNonIP is the transfer of non-IP data to an external packet
	// network.
	PDPTypeNonIP PDPType = "Non-IP"
)

func (p PDPType) valid() bool {
	switch p {
	case PDPTypeIP, PDPTypeIPv6, PDPTypeIPv4v6, PDPTypeNonIP:
		return true
	}
	return false
}

// APNProfile is the default PDN context used when attaching to the network.
//
// The credentials are only sent if both Username and Password are set.
type APNProfile struct {
	PDPType  PDPType
	Name     string
	Username string
	Password string
}

func (p APNProfile) command() (string, error) {
	if !p.PDPType.valid() {
		return "", errors.Wrapf(ErrInvalidParameter, "PDP type %q", p.PDPType)
	}
	params := []struct {
		name  string
		value string
	}{
		{"APN", p.Name},
		{"username", p.Username},
		{"password", p.Password},
	}
	for _, param := range params {
		if err := checkString(param.name, param.value); err != nil {
			return "", err
		}
	}
	if p.Username != "" && p.Password != "" {
		return fmt.Sprintf(`+QCGDEFCONT="%s","%s","%s","%s"`,
			p.PDPType, p.Name, p.Username, p.Password), nil
	}
	return fmt.Sprintf(`+QCGDEFCONT="%s","%s"`, p.PDPType, p.Name), nil
}

// SetAPN sets the default PDN context.
func (d *Device) SetAPN(ctx context.Context, p APNProfile) error {
	cmd, err := p.command()
	if err != nil {
		return err
	}
	return d.configure(ctx, "set apn", cmd)
}

// Band selects a predefined set of bands.
type Band int

const (
	// BandAll enables all bands supported by the modem.
	BandAll Band = 0

	// BandRestricted limits the modem to bands 3 and 28.
	BandRestricted Band = 1
)

// restrictedBands are the bands enabled by BandRestricted.
var restrictedBands = []int{3, 28}

// supportedBands are the LTE bands supported by the BC660K.
var supportedBands = map[int]bool{
	1: true, 2: true, 3: true, 4: true, 5: true, 8: true, 12: true,
	13: true, 14: true, 17: true, 18: true, 19: true, 20: true, 25: true,
	28: true, 31: true, 66: true, 70: true, 71: true, 85: true,
}

// SetBand restricts the modem to the selected set of bands.
func (d *Device) SetBand(ctx context.Context, b Band) error {
	switch b {
	case BandAll:
		return d.SetBands(ctx)
	case BandRestricted:
		return d.SetBands(ctx, restrictedBands...)
	default:
		return errors.Wrapf(ErrInvalidParameter, "band selector %d", b)
	}
}

// SetBands restricts the modem to the listed bands.
//
// If no bands are listed then all supported bands are enabled.
func (d *Device) SetBands(ctx context.Context, bands ...int) error {
	cmd, err := bandCommand(bands)
	if err != nil {
		return err
	}
	return d.configure(ctx, "set band", cmd)
}

func bandCommand(bands []int) (string, error) {
	seen := make(map[int]bool, len(bands))
	params := []string{strconv.Itoa(len(bands))}
	for _, b := range bands {
		if !supportedBands[b] {
			return "", errors.Wrapf(ErrInvalidParameter, "band %d not supported", b)
		}
		if seen[b] {
			return "", errors.Wrapf(ErrInvalidParameter, "band %d repeated", b)
		}
		seen[b] = true
		params = append(params, strconv.Itoa(b))
	}
	return "+QBAND=" + strings.Join(params, ","), nil
}

// EnableNetworkRegistration enables the +CEREG network registration
// indication.
func (d *Device) EnableNetworkRegistration(ctx context.Context) error {
	return d.configure(ctx, "enable network registration", "+CEREG=1")
}

// EnableConnection enables the +CSCON signalling connection status
// indication.
func (d *Device) EnableConnection(ctx context.Context) error {
	return d.configure(ctx, "enable connection", "+CSCON=1")
}

// RegistrationStatus is the EPS network registration status reported by
// +CEREG.
type RegistrationStatus int

const (
	// RegNotRegistered indicates the modem is not registered and is not
	// searching.
	RegNotRegistered RegistrationStatus = 0

	// RegHome indicates registration with the home network.
	RegHome RegistrationStatus = 1

	// RegSearching indicates the modem is searching for an operator.
	RegSearching RegistrationStatus = 2

	// RegDenied indicates registration was denied.
	RegDenied RegistrationStatus = 3

	// RegUnknown indicates the status is unknown, e.g. out of coverage.
	RegUnknown RegistrationStatus = 4

	// RegRoaming indicates registration with a roaming network.
	RegRoaming RegistrationStatus = 5
)

// Registered returns true if the status is registered, home or roaming.
func (s RegistrationStatus) Registered() bool {
	return s == RegHome || s == RegRoaming
}

// OnRegistration sets the handler for the +CEREG reports enabled by
// EnableNetworkRegistration.
//
// The handler is called from the modem read loop, so it must not block or
// issue commands. Reports that cannot be parsed are logged and dropped.
// Once set, +CEREG lines are no longer returned as command info.
func (d *Device) OnRegistration(handler func(RegistrationStatus)) error {
	return d.AddIndication("+CEREG:", func(lines []string) {
		stat, err := reportCode(lines[0], "+CEREG")
		if err != nil {
			d.log.WithField("op", "registration report").WithError(err).Warn("dropped")
			return
		}
		handler(RegistrationStatus(stat))
	})
}

// OnConnection sets the handler for the +CSCON reports enabled by
// EnableConnection. The handler receives true when the signalling connection
// is established and false when it is released.
//
// The same restrictions as OnRegistration apply to the handler.
func (d *Device) OnConnection(handler func(bool)) error {
	return d.AddIndication("+CSCON:", func(lines []string) {
		mode, err := reportCode(lines[0], "+CSCON")
		if err != nil {
			d.log.WithField("op", "connection report").WithError(err).Warn("dropped")
			return
		}
		handler(mode == 1)
	})
}

// reportCode returns the first field of an unsolicited report, e.g. 5 from
// +CEREG: 5,"1A2B","01A2B3C4",9.
func reportCode(line, prefix string) (int, error) {
	v, err := info.Int(info.Fields(info.TrimPrefix(line, prefix))[0])
	if err != nil {
		return 0, errors.Wrap(ErrMalformedResponse, err.Error())
	}
	return v, nil
}

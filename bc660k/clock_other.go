// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

//go:build !linux
// +build !linux

package bc660k

import "time"

func setSystemTime(t time.Time) error {
	return ErrClockNotSettable
}

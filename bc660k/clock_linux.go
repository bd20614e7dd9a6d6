// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The nbiot-go modem authors.

//go:build linux
// +build linux

package bc660k

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func setSystemTime(t time.Time) error {
	tv := unix.NsecToTimeval(t.UnixNano())
	return errors.Wrap(unix.Settimeofday(&tv), "settimeofday")
}

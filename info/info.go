// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.

// Package info provides utility functions for manipulating info lines returned
// by the modem in response to AT commands.
package info

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// HasPrefix returns true if the line begins with the info prefix for the command.
func HasPrefix(line, cmd string) bool {
	return strings.HasPrefix(line, cmd+":")
}

// TrimPrefix removes the command  prefix, if any, and any intervening space
// from the info line.
func TrimPrefix(line, cmd string) string {
	return strings.TrimLeft(strings.TrimPrefix(line, cmd+":"), " ")
}

// Find returns the value of the first line with the info prefix for the
// command, with the prefix trimmed.
func Find(lines []string, cmd string) (string, bool) {
	for _, l := range lines {
		if HasPrefix(l, cmd) {
			return TrimPrefix(l, cmd), true
		}
	}
	return "", false
}

// Fields splits an info value into its comma separated fields.
//
// Commas within double quoted strings do not split fields, and the quotes are
// retained. Surrounding space is trimmed from each field.
func Fields(value string) []string {
	var fields []string
	quoted := false
	start := 0
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				fields = append(fields, strings.TrimSpace(value[start:i]))
				start = i + 1
			}
		}
	}
	return append(fields, strings.TrimSpace(value[start:]))
}

// Unquote removes one pair of surrounding double quotes from the field, if
// present.
func Unquote(field string) string {
	if len(field) >= 2 && field[0] == '"' && field[len(field)-1] == '"' {
		return field[1 : len(field)-1]
	}
	return field
}

// Int parses a decimal integer field.
func Int(field string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, errors.Wrapf(ErrNotInt, "%q", field)
	}
	return v, nil
}

// ErrNotInt indicates a field expected to be an integer is not.
var ErrNotInt = errors.New("field is not an integer")

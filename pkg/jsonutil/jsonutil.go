// Package jsonutil provides scalar types that tolerate the loose typing of
// XUI panel responses, where numeric and boolean fields may arrive either as
// JSON numbers/booleans or as quoted strings depending on the panel version.
package jsonutil

import (
	"bytes"
	"fmt"
	"strconv"
)

// Int is an int64 that unmarshals from a JSON number or a decimal string.
// It always marshals back as a JSON number.
type Int int64

// Int64 returns the value as a plain int64.
func (v Int) Int64() int64 { return int64(v) }

// MarshalJSON implements json.Marshaler.
func (v Int) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(v), 10)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Int) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some panels report fractional byte counters.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("jsonutil: cannot parse %q as integer: %w", s, err)
		}
		n = int64(f)
	}
	*v = Int(n)
	return nil
}

// Bool is a bool that unmarshals from a JSON boolean or the strings
// "true"/"false". It always marshals back as a JSON boolean.
type Bool bool

// Value returns the value as a plain bool.
func (v Bool) Value() bool { return bool(v) }

// MarshalJSON implements json.Marshaler.
func (v Bool) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatBool(bool(v))), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Bool) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	switch s {
	case "true", "1":
		*v = true
	case "false", "0", "", "null":
		*v = false
	default:
		return fmt.Errorf("jsonutil: cannot parse %q as boolean", s)
	}
	return nil
}

// String is a string that also accepts a bare JSON number, preserving its
// decimal representation. Panels encode fallback destinations either as a
// port number or as an address string.
type String string

// MarshalJSON implements json.Marshaler.
func (v String) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(v))), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *String) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("jsonutil: malformed string: %w", err)
		}
		*v = String(s)
		return nil
	}
	*v = String(data)
	return nil
}

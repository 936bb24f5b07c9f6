package pcrescan

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ConversionError reports that a captured byte range could not be
// parsed into a destination's type. Destinations already converted
// before the failing one keep their converted values.
type ConversionError struct {
	Index int // 1-based position of the failing destination
	Bytes []byte
	Err   error
}

func (e *ConversionError) Error() string {
	return errors.Wrapf(e.Err, "pcrescan: converting capture %d (%q)", e.Index, e.Bytes).Error()
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Dest is the single-method capability every destination exposes to
// the Capture Binder: given the raw bytes of one capture, try to
// store a value and report success. One interface, one method, a
// family of concrete implementations below plus whatever a caller
// supplies through Sink.
type Dest interface {
	Convert(b []byte) error
}

// destFunc adapts a plain function to Dest.
type destFunc func([]byte) error

func (f destFunc) Convert(b []byte) error { return f(b) }

// Bytes stores the captured range verbatim, copied out of the
// adapter's window since the range does not outlive the call that
// produced it.
func Bytes(dst *[]byte) Dest {
	return destFunc(func(b []byte) error {
		*dst = append([]byte(nil), b...)
		return nil
	})
}

// String stores the captured range as a string.
func String(dst *string) Dest {
	return destFunc(func(b []byte) error {
		*dst = string(b)
		return nil
	})
}

// Int stores the captured range parsed as a signed integer of bitSize
// bits (0 uses the platform int width, matching strconv.ParseInt's own
// convention). Base 0 lets the input's own prefix (0x, 0o, 0b, leading
// 0) select the base, same as strconv.ParseInt.
func Int(dst *int64, base, bitSize int) Dest {
	return destFunc(func(b []byte) error {
		v, err := strconv.ParseInt(string(b), base, bitSize)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	})
}

// Uint is Int's unsigned counterpart.
func Uint(dst *uint64, base, bitSize int) Dest {
	return destFunc(func(b []byte) error {
		v, err := strconv.ParseUint(string(b), base, bitSize)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	})
}

// Float stores the captured range parsed as a floating-point value.
// strconv.ParseFloat accepts the case-insensitive "nan", "inf", and
// "infinity" tokens, but allows a sign only on "inf"/"infinity"; a
// signed "nan" ("+nan", "-NaN") is recognized here and stored as NaN.
func Float(dst *float64, bitSize int) Dest {
	return destFunc(func(b []byte) error {
		s := string(b)
		v, err := strconv.ParseFloat(s, bitSize)
		if err != nil && len(s) == 4 && (s[0] == '+' || s[0] == '-') && strings.EqualFold(s[1:], "nan") {
			v, err = math.NaN(), nil
		}
		if err != nil {
			return err
		}
		*dst = v
		return nil
	})
}

// Bool stores the captured range parsed as a boolean. It accepts
// "0"/"1" and, case-insensitively, "true"/"false"; anything else is a
// conversion error.
func Bool(dst *bool) Dest {
	return destFunc(func(b []byte) error {
		s := string(b)
		switch {
		case s == "0" || strings.EqualFold(s, "false"):
			*dst = false
		case s == "1" || strings.EqualFold(s, "true"):
			*dst = true
		default:
			return errors.Errorf("pcrescan: %q is not a recognized boolean", b)
		}
		return nil
	})
}

// Sink adapts a caller-supplied capability (anything implementing
// Dest directly) for use in a scan's destination list. It exists so
// callers aren't required to route through the Bytes/String/Int/...
// helpers above when they have their own typed sink.
func Sink(d Dest) Dest { return d }

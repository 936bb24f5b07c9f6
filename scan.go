package pcrescan

import (
	"io"

	"github.com/brinkqiang/fmt-scan/internal/window"
)

// ErrAborted is returned, unwrapped, by ScanCallouts and
// ScanCalloutsSource when the callout function returned false and the
// match was abandoned. They report the –1 return value alongside this sentinel
// rather than only the bare integer, since a Go caller should be able
// to branch on it without magic numbers.
type abortedError struct{}

func (abortedError) Error() string { return "pcrescan: callout aborted the match" }

// ErrAborted identifies an abort via errors.Is(err, pcrescan.ErrAborted).
var ErrAborted error = abortedError{}

// patternOf compiles an ad hoc textual pattern with JIT disabled: a
// caller reaching for a string instead of a compiled *Pattern is, by
// construction, not reusing it across many scans, so the one-time
// JIT-study cost isn't worth paying.
func patternOf(p interface{}) (*Pattern, error) {
	switch v := p.(type) {
	case *Pattern:
		return v, nil
	case string:
		pat, err := Compile(v)
		if err != nil {
			return nil, err
		}
		pat.DisableJIT()
		return pat, nil
	default:
		panic("pcrescan: pattern must be *Pattern or string")
	}
}

// Scan reads from src under the direction of pattern, binding
// successive capture groups to dests in order. It returns the number
// of destinations successfully converted. A return of 0 with a nil
// error means the pattern did not match, or that it matched without
// binding any destination (no destinations or capture groups, or an
// unset first group); a non-nil error means a
// stream error, engine error, or conversion error occurred (in the
// conversion-error case the returned count is the number of
// destinations converted before the failure).
//
// pattern may be a *Pattern or a plain string (compiled ad hoc, JIT
// disabled).
func Scan(src io.Reader, pattern interface{}, dests ...Dest) (int, error) {
	p, err := patternOf(pattern)
	if err != nil {
		return 0, err
	}
	return ScanSource(window.New(src), p, dests...)
}

// ScanSource is Scan against an already-constructed byte source
// adapter, for callers driving repeated scans against the same
// stream without re-wrapping it in a fresh bufio.Reader each time.
func ScanSource(src *window.Source, p *Pattern, dests ...Dest) (int, error) {
	var stats Stats
	var count int
	var bindErr error

	outcome, err := p.runMatch(src, &stats, nil, func(subject []byte, groups int, group groupAccessor) {
		count, bindErr = bindPositional(dests, groups, group)
	})
	if err != nil {
		return 0, err
	}
	if !outcome.matched {
		return 0, nil
	}
	if bindErr != nil {
		return count, bindErr
	}
	return count, nil
}

// ScanCallouts reads from src under the direction of pattern, invoking
// fn at every callout point. It returns the number of callout
// invocations that returned true (continue), or 0 on no-match. If fn
// ever returns false, the match is abandoned and ScanCallouts returns
// (-1, ErrAborted) — the stream is left at its start position on a
// best-effort basis, per the Byte Source Adapter's rewind contract.
func ScanCallouts(src io.Reader, pattern interface{}, fn func(CaptureRecord) bool) (int, error) {
	p, err := patternOf(pattern)
	if err != nil {
		return 0, err
	}
	return ScanCalloutsSource(window.New(src), p, fn)
}

// ScanCalloutsSource is ScanCallouts against an already-constructed
// byte source adapter.
func ScanCalloutsSource(src *window.Source, p *Pattern, fn func(CaptureRecord) bool) (int, error) {
	var stats Stats
	count := 0

	outcome, err := p.runMatch(src, &stats, func(rec CaptureRecord) bool {
		ok := fn(rec)
		if ok {
			count++
		}
		return ok
	}, nil)
	if err != nil {
		return 0, err
	}
	if outcome.aborted {
		src.RewindToStart()
		return -1, ErrAborted
	}
	if !outcome.matched {
		return 0, nil
	}
	return count, nil
}

// ScanReaderAll repeatedly scans src with pattern, calling fn with
// each successful-capture count until a scan returns 0 (the pattern
// stops matching, or a match binds no destination) or fn returns false. It is the positional-mode analogue of
// KromDaniel-regengo's generated FindReader loop: drive one adapter
// across an entire stream instead of requiring the caller to
// re-invoke Scan by hand for every record.
func ScanReaderAll(src io.Reader, pattern interface{}, dests func() []Dest, fn func(n int) bool) error {
	p, err := patternOf(pattern)
	if err != nil {
		return err
	}
	w := window.New(src)
	for {
		n, err := ScanSource(w, p, dests()...)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if !fn(n) {
			return nil
		}
	}
}

// ScanReaderCount is ScanReaderAll's counting form: it scans src
// repeatedly until a scan returns 0 and returns how many scans bound
// at least one destination. Grounded on the same FindReaderCount shape
// KromDaniel-regengo generates for its streaming matchers.
func ScanReaderCount(src io.Reader, pattern interface{}, dests func() []Dest) (int, error) {
	matches := 0
	err := ScanReaderAll(src, pattern, dests, func(int) bool {
		matches++
		return true
	})
	return matches, err
}

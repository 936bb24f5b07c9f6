// Package window implements the byte source adapter the match driver
// scans against: it wraps a buffered input stream, exposes the
// currently unread window either as a zero-copy view of the stream's
// own buffer (direct mode) or as a copy living in an owned overflow
// buffer (pulled mode), and tracks enough state to best-effort restore
// the read position on a failed match.
//
// The buffer-growth and leftover-tracking shape here is the same one
// KromDaniel-regengo/stream/helpers.go uses for its line-filtering
// readers: compact what's still needed to the front of a slice, grow
// by a fixed increment when more room is needed, and keep separate
// bookkeeping for "how much is valid" vs "how much is capacity".
package window

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// Mode reports whether the window is borrowed straight from the
// underlying stream's buffer or copied into an owned overflow buffer.
type Mode int

const (
	// Direct is a zero-copy view of the stream's own buffer.
	Direct Mode = iota
	// Pulled is a view of an internally owned overflow buffer.
	Pulled
)

// RefillOutcome is the result of a TryRefill call.
type RefillOutcome int

const (
	// Refilled means the window grew by at least one byte.
	Refilled RefillOutcome = iota
	// EOF means the stream has no more bytes to offer.
	EOF
	// CannotRefill means a read error occurred; Source.Err holds it.
	CannotRefill
)

// growIncrement is how many bytes the overflow buffer grows by at a
// time once pulled mode needs more room than it currently has.
const growIncrement = 4096

// Source is the byte source adapter of a single scan stream. It is not
// safe for concurrent use; the match driver owns it for the duration
// of one scan call (or a sequence of scan calls against the same
// stream).
type Source struct {
	br   *bufio.Reader
	mode Mode

	overflow []byte // owned buffer, valid content only (no spare capacity semantics beyond cap())

	haveLastByte bool
	lastByte     byte

	transitioned bool // true once this scan attempt has pulled bytes out of br
	err          error
}

// New wraps r in a Source. r is read through a bufio.Reader if it does
// not already buffer its own reads.
func New(r io.Reader) *Source {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Source{br: br}
}

// Err returns the first read error observed by TryRefill, if any.
func (s *Source) Err() error {
	return s.err
}

// Mode reports the adapter's current mode.
func (s *Source) Mode() Mode {
	return s.mode
}

// BeginScan marks the start of a new scan attempt against this source.
// It must be called before the first CurrentWindow of each scan call;
// it clears the "did we transition to pulled mode during this attempt"
// flag that RewindToStart consults.
func (s *Source) BeginScan() {
	s.transitioned = false
	if s.mode == Pulled && len(s.overflow) == 0 {
		// Overflow fully consumed by the previous scan; resume
		// borrowing directly from the stream's own buffer.
		s.mode = Direct
	}
}

// CurrentWindow returns the contiguous unread region the engine may
// match against. In direct mode this borrows the stream's buffer
// zero-copy; the caller must not retain it past the next call that
// mutates the Source.
func (s *Source) CurrentWindow() ([]byte, error) {
	if s.mode == Pulled {
		return s.overflow, nil
	}
	n := s.br.Buffered()
	if n == 0 {
		// Prime the buffer; ignore EOF here, an empty window at EOF
		// is a legitimate state for the driver to observe.
		if _, err := s.br.Peek(1); err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return nil, errors.Wrap(err, "window: priming read failed")
		}
		n = s.br.Buffered()
	}
	buf, err := s.br.Peek(n)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "window: peek failed")
	}
	return buf, nil
}

// PrecedingByte returns the byte immediately before the current
// window, if known, for beginning-of-line determination. ok is false
// at the very start of the stream.
func (s *Source) PrecedingByte() (b byte, ok bool) {
	return s.lastByte, s.haveLastByte
}

// TryRefill asks the stream for at least minAdditional more bytes than
// are currently in the window. It may transition the adapter from
// direct to pulled mode if the stream's own buffer cannot grow enough
// to satisfy the request.
func (s *Source) TryRefill(minAdditional int) (RefillOutcome, error) {
	if minAdditional <= 0 {
		minAdditional = 1
	}

	if s.mode == Direct {
		have := s.br.Buffered()
		want := have + minAdditional
		buf, err := s.br.Peek(want)
		if err == nil {
			return s.refillResult(len(buf) > have), nil
		}
		if err == bufio.ErrBufferFull {
			// The stream's own buffer can't grow any further; copy
			// what we have into an owned buffer and keep going there.
			s.pullFromDirect()
		} else if err == io.EOF {
			if len(buf) > have {
				return Refilled, nil
			}
			return EOF, nil
		} else {
			s.err = err
			return CannotRefill, err
		}
	}

	// Pulled mode: grow the owned buffer via direct reads.
	before := len(s.overflow)
	target := before + minAdditional
	for len(s.overflow) < target {
		if cap(s.overflow)-len(s.overflow) < growIncrement {
			grown := make([]byte, len(s.overflow), len(s.overflow)+growIncrement)
			copy(grown, s.overflow)
			s.overflow = grown
		}
		end := len(s.overflow)
		room := cap(s.overflow) - end
		if room > target-end {
			room = target - end
		}
		if room <= 0 {
			room = growIncrement
		}
		n, err := s.br.Read(s.overflow[end : end+room])
		s.overflow = s.overflow[:end+n]
		if n > 0 {
			s.transitioned = true
		}
		if err != nil {
			if err == io.EOF {
				if len(s.overflow) > before {
					return Refilled, nil
				}
				return EOF, nil
			}
			s.err = err
			return CannotRefill, err
		}
		if n == 0 {
			// Reader returned no data and no error; avoid busy-looping.
			break
		}
	}
	return s.refillResult(len(s.overflow) > before), nil
}

func (s *Source) refillResult(grew bool) RefillOutcome {
	if grew {
		return Refilled
	}
	return EOF
}

// pullFromDirect copies the stream's currently buffered window into
// the overflow buffer and switches to pulled mode. Called only when
// the stream's native buffer cannot Peek any further.
func (s *Source) pullFromDirect() {
	n := s.br.Buffered()
	buf, _ := s.br.Peek(n)
	s.overflow = append(s.overflow[:0], buf...)
	if n > 0 {
		s.br.Discard(n)
		s.transitioned = true
	}
	s.mode = Pulled
}

// Commit advances the logical position by n bytes, consuming them from
// the front of the window.
func (s *Source) Commit(n int) {
	if n <= 0 {
		return
	}
	if s.mode == Direct {
		buf, _ := s.br.Peek(n)
		if len(buf) > 0 {
			s.lastByte = buf[len(buf)-1]
			s.haveLastByte = true
		}
		s.br.Discard(n)
		return
	}
	if n > len(s.overflow) {
		n = len(s.overflow)
	}
	if n > 0 {
		s.lastByte = s.overflow[n-1]
		s.haveLastByte = true
	}
	s.overflow = s.overflow[n:]
}

// RewindToStart attempts to restore the position the adapter had at
// the beginning of the current scan attempt. It succeeds only when no
// bytes crossed a buffer-refill boundary that pulled them irreversibly
// out of the stream's own buffer during this attempt.
func (s *Source) RewindToStart() bool {
	return !s.transitioned
}

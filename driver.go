package pcrescan

import (
	"github.com/pkg/errors"

	"github.com/brinkqiang/fmt-scan/internal/window"
	"github.com/brinkqiang/fmt-scan/pcre"
)

// Stats accumulates match-driver activity across a single scan call:
// how many refills it took and how many partial verdicts the engine
// returned. The scan entry points allocate one per call and do not
// return it, so it is not visible to their callers.
type Stats struct {
	Refills         int
	PartialVerdicts int
}

// matchOutcome is runMatch's synchronous result. Engine and stream
// errors are returned separately as a Go error; matchOutcome only
// distinguishes the three non-error terminal states of the match
// state machine (COMPLETE, NOMATCH, ABORT).
type matchOutcome struct {
	matched  bool
	aborted  bool
	consumed int
}

// groupAccessor reads a numbered capture group out of the match that
// just completed. It and the subject slice handed to onCapture are
// only valid for the duration of the onCapture call.
type groupAccessor func(i int) (b []byte, present bool)

// runMatch drives one anchored, partial-match-aware attempt of p
// against src, following a state machine of START → (MATCHING ⇄
// REFILLING) → COMPLETE | NOMATCH | ABORT | ERROR.
//
// onCallout, if non-nil, is invoked for every (?C) callout point the
// engine reaches, including ones on speculative backtracking paths
// that do not survive to the final match (see DESIGN.md's resolution
// of the open question on speculative-callout semantics: any
// non-continue return is a hard abort of the whole attempt, not just
// the branch that raised it). When a partial verdict makes the driver
// re-run the match against a grown window (or once more at EOF), the
// engine replays the callouts it already reached on the earlier run;
// those replays are not passed to onCallout again.
//
// onCapture, if non-nil, is invoked exactly once, synchronously, when
// the match completes — before the consumed prefix is committed to
// src — with the matched subject window and an accessor for each
// numbered capture group.
func (p *Pattern) runMatch(
	src *window.Source,
	stats *Stats,
	onCallout func(CaptureRecord) bool,
	onCapture func(subject []byte, groups int, group groupAccessor),
) (matchOutcome, error) {
	p.ensureStudied()
	src.BeginScan()

	m := p.re.NewMatcher()
	delivered, seen := 0, 0
	if onCallout != nil {
		m.SetCallout(func(c *pcre.Callout) bool {
			seen++
			if seen <= delivered {
				// Replay of a callout an earlier run already delivered.
				return true
			}
			delivered++
			start, end := c.LastCapture()
			rec := CaptureRecord{NumericMark: c.Number}
			if start >= 0 && end >= start && end <= len(c.Subject) {
				rec.Bytes = c.Subject[start:end]
			}
			return onCallout(rec)
		})
		defer m.SetCallout(nil)
	}

	eofReached := false
	for {
		subject, err := src.CurrentWindow()
		if err != nil {
			return matchOutcome{}, errors.Wrap(err, "pcrescan: reading window")
		}

		flags := 0
		if !eofReached {
			flags |= pcre.PARTIAL_HARD
		}
		if b, ok := src.PrecedingByte(); ok && b != '\n' && b != '\r' {
			flags |= pcre.NOTBOL
		}

		seen = 0
		rc := m.Exec(subject, flags)

		switch {
		case rc == pcre.ERROR_NOMATCH:
			return matchOutcome{}, nil

		case rc == pcre.ERROR_PARTIAL && !eofReached:
			stats.PartialVerdicts++
			outcome, rerr := src.TryRefill(1)
			switch outcome {
			case window.Refilled:
				stats.Refills++
				continue
			case window.EOF:
				eofReached = true
				continue
			default:
				return matchOutcome{}, errors.Wrap(rerr, "pcrescan: refill failed")
			}

		case rc == pcre.ERROR_CALLOUT:
			return matchOutcome{aborted: true}, nil

		case rc < 0:
			return matchOutcome{}, errors.Errorf("pcrescan: engine error %d", rc)

		default:
			consumed := len(m.Group(0))
			groups := m.Groups()
			group := func(i int) ([]byte, bool) {
				if !m.Present(i) {
					return nil, false
				}
				return m.Group(i), true
			}
			if onCapture != nil {
				onCapture(subject, groups, group)
			}
			src.Commit(consumed)
			return matchOutcome{matched: true, consumed: consumed}, nil
		}
	}
}

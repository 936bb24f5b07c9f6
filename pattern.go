// Package pcrescan implements a stream-aware, regex-directed formatted
// scanner: given a buffered byte stream and a compiled Pattern, it
// advances an anchored, partial-match-aware match against the stream,
// requesting more input as needed, and routes captured substrings
// either to a fixed list of typed destinations or to a caller-supplied
// callout function.
package pcrescan

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/brinkqiang/fmt-scan/pcre"
)

// CaptureRecord is what a callout function receives at each (?C) point
// the engine reaches: the byte range of the most recently completed
// capture group (or of the match so far, if none has captured yet),
// plus the callout's marks. StringMark is always empty: classic PCRE1
// only supports numeric callout marks, never PCRE2-style textual ones.
type CaptureRecord struct {
	Bytes       []byte
	NumericMark int
	StringMark  string
}

// CalloutDescriptor enumerates one (?C) or (?Cn) item found in a
// compiled pattern, for callers that want to validate a pattern's
// callout shape before scanning with it.
type CalloutDescriptor struct {
	NumericMark int
	// StringMark is always empty for patterns compiled against this
	// engine; see CaptureRecord.StringMark.
	StringMark string
}

// PatternError reports that a pattern string failed to compile. It
// wraps the underlying engine's CompileError rather than replacing it,
// so callers that care can still recover the byte offset PCRE1
// reported the error at.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return errors.Wrapf(e.Err, "pcrescan: compiling pattern %q", e.Pattern).Error()
}

func (e *PatternError) Unwrap() error { return e.Err }

// compileFlags are the fixed engine options every Pattern compiles
// with: anchored (the Match Driver always matches at a fixed start
// offset, never searches forward for one), multiline so ^ and $ work
// per line, and CR|LF|CRLF recognized as line endings for \R and
// newline-sensitive items.
const compileFlags = pcre.ANCHORED | pcre.MULTILINE | pcre.NEWLINE_ANYCRLF | pcre.BSR_ANYCRLF

// studyFlags requests JIT compilation plus the soft and hard partial-
// match JIT variants, so a Pattern that has been studied can service
// both complete-match attempts and the Match Driver's PARTIAL_HARD
// probes without falling back to the interpreted matcher.
const studyFlags = pcre.STUDY_JIT_COMPILE |
	pcre.STUDY_JIT_PARTIAL_SOFT_COMPILE |
	pcre.STUDY_JIT_PARTIAL_HARD_COMPILE

// Pattern is an immutable compiled regex together with its enumerated
// callout descriptors. A Pattern is safe for concurrent use: matching
// against it allocates a fresh pcre.Matcher per call, and studying
// happens at most once, guarded by studyOnce.
type Pattern struct {
	source string
	re     *pcre.Regexp

	callouts []CalloutDescriptor

	disableJIT atomic.Bool
	studyOnce  sync.Once
	studyErr   error
}

// Compile compiles pattern with the fixed option set described at
// compileFlags. JIT studying is deferred until the first scan call
// that matches against the Pattern (see ensureStudied) so that
// compiling many patterns up front — e.g. for
// validation — doesn't pay the JIT cost for ones never matched
// against.
func Compile(pattern string) (*Pattern, error) {
	re, err := pcre.Compile(pattern, compileFlags)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	return &Pattern{
		source:   pattern,
		re:       re,
		callouts: parseCalloutDescriptors(pattern),
	}, nil
}

// MustCompile is like Compile but panics on error, for patterns fixed
// at program initialization.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// DisableJIT turns off JIT studying for subsequent matches against p.
// It has no effect if p has already been studied; call it immediately
// after Compile if it's needed at all.
func (p *Pattern) DisableJIT() {
	p.disableJIT.Store(true)
}

// ensureStudied studies p's regex at most once, the first time a scan
// call actually needs to match against it. A failed study is not
// fatal: pcre_exec still works against an unstudied program, just
// without JIT, so studyErr is recorded but never returned to the
// caller of a scan entry point.
func (p *Pattern) ensureStudied() {
	p.studyOnce.Do(func() {
		if p.disableJIT.Load() {
			return
		}
		p.studyErr = p.re.Study(studyFlags)
	})
}

// MaxCaptureIndex returns the highest numbered capture group in p's
// pattern, i.e. the most destinations a positional-mode scan call
// could possibly bind.
func (p *Pattern) MaxCaptureIndex() int {
	return p.re.Groups()
}

// Callouts returns the callout descriptors found in p's source
// pattern, in left-to-right order of appearance.
func (p *Pattern) Callouts() []CalloutDescriptor {
	return append([]CalloutDescriptor(nil), p.callouts...)
}

// parseCalloutDescriptors scans pattern's literal text for (?C) and
// (?Cn) items. It is a lightweight lexical scan, not a full regex
// parse: it skips over character classes and escaped parentheses so
// it doesn't mistake literal "(?C" inside a class for a callout item,
// but it does not attempt to understand the rest of the pattern's
// grammar.
func parseCalloutDescriptors(pattern string) []CalloutDescriptor {
	var out []CalloutDescriptor
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\':
			i++ // skip the escaped character entirely
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '(' && i+2 < len(pattern) && pattern[i+1] == '?' && pattern[i+2] == 'C':
			j := i + 3
			start := j
			for j < len(pattern) && pattern[j] >= '0' && pattern[j] <= '9' {
				j++
			}
			num := 0
			if j > start {
				num, _ = strconv.Atoi(pattern[start:j])
			}
			out = append(out, CalloutDescriptor{NumericMark: num})
			if j < len(pattern) && pattern[j] == ')' {
				i = j
			} else {
				i = j - 1
			}
		}
	}
	return out
}

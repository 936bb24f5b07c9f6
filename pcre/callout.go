// Copyright (c) 2011 Florian Weimer. All rights reserved.
// See pcre.go for the full license text this file is distributed under.

package pcre

/*
#include "./pcre.h"
#include "./pcre_fallback.h"
#include "_cgo_export.h"

static void go_pcre_install_callout(void) {
	pcre_callout = go_pcre_callout_trampoline;
}

static pcre_extra *go_pcre_new_extra(void) {
	pcre_extra *e = (pcre_extra *)calloc(1, sizeof(pcre_extra));
	return e;
}
*/
import "C"

import (
	"runtime"
	"runtime/cgo"
	"sync"
	"unsafe"
)

func init() {
	C.go_pcre_install_callout()
}

// Callout describes the state of a match in progress at the point a
// (?C) item in the pattern fired. Numbers 0-255 are the only callout
// marks classic PCRE1 supports; there is no textual-mark equivalent of
// PCRE2's (?C"name") in this engine, so CaptureRecord's string mark is
// always empty for callouts raised through this package.
type Callout struct {
	// Number is the callout's numeric argument, e.g. 3 for "(?C3)".
	// Bare "(?C)" callouts report 0.
	Number int

	// Subject is the entire string pcre_exec was matching against.
	Subject []byte

	// StartMatch is the offset within Subject where the current match
	// attempt began.
	StartMatch int

	// CurrentPosition is the offset within Subject the engine has
	// reached at the time of the callout.
	CurrentPosition int

	// CaptureTop is one more than the highest numbered capture group
	// that has captured something so far in this match attempt.
	CaptureTop int

	// CaptureLast is the number of the most recently captured group,
	// or -1 if none have captured yet.
	CaptureLast int

	ovector []C.int
}

// LastCapture returns the byte range of the most recently completed
// capture group, or the overall match-so-far (StartMatch..CurrentPosition)
// if no group has captured yet: the pointer and length of the last
// captured sub-expression, or of the whole match if none has captured
// yet, which is what CaptureRecord carries up to the caller.
func (c *Callout) LastCapture() (start, end int) {
	if c.CaptureLast >= 0 {
		idx := 2 * c.CaptureLast
		if idx+1 < len(c.ovector) {
			s := int(c.ovector[idx])
			e := int(c.ovector[idx+1])
			if s >= 0 && e >= 0 {
				return s, e
			}
		}
	}
	return c.StartMatch, c.CurrentPosition
}

// calloutRegistry maps the handles embedded in callout_data back to the
// Go closure that should run. A registry (rather than stashing the
// closure directly in callout_data) is required because cgo.Handle
// values, not Go pointers, are the only thing safe to round-trip
// through a void* held by C across calls into cgo.
var calloutRegistry sync.Map // cgo.Handle -> func(*Callout) bool

// SetCallout arms the matcher to invoke fn at every (?C) callout point
// during every subsequent Exec*/ExecString* call until it is
// disarmed. fn returning false
// aborts the match (pcre_exec returns PCRE_ERROR_CALLOUT to the caller
// by way of Matcher.Exec's return code). Passing a nil fn disarms
// callouts and frees the associated resources.
func (m *Matcher) SetCallout(fn func(*Callout) bool) {
	if m.calloutHandle != 0 {
		calloutRegistry.Delete(m.calloutHandle)
		cgo.Handle(m.calloutHandle).Delete()
		m.calloutHandle = 0
	}
	if m.calloutExtra != nil {
		C.free(unsafe.Pointer(m.calloutExtra))
		m.calloutExtra = nil
	}
	if fn == nil {
		return
	}

	h := cgo.NewHandle(fn)
	calloutRegistry.Store(h, fn)
	m.calloutHandle = h

	extra := C.go_pcre_new_extra()
	if m.re.extra != nil {
		*extra = *m.re.extra
	}
	extra.flags |= C.PCRE_EXTRA_CALLOUT_DATA
	extra.callout_data = unsafe.Pointer(uintptr(h))
	m.calloutExtra = extra

	runtime.SetFinalizer(m, (*Matcher).clearCallout)
}

// clearCallout releases callout resources; it is registered as m's
// finalizer the first time SetCallout(non-nil) runs, so a Matcher that
// used callouts never leaks its cgo.Handle or calloutExtra.
func (m *Matcher) clearCallout() {
	m.SetCallout(nil)
}

// extraForExec returns the pcre_extra the next Exec* call should pass:
// the callout-augmented one if callouts are armed, otherwise the
// Regexp's own study data (possibly nil).
func (m *Matcher) extraForExec() *C.pcre_extra {
	if m.calloutExtra != nil {
		return m.calloutExtra
	}
	return m.re.extra
}

//export go_pcre_callout_trampoline
func go_pcre_callout_trampoline(block *C.pcre_callout_block) C.int {
	h := cgo.Handle(uintptr(block.callout_data))
	v, ok := calloutRegistry.Load(h)
	if !ok {
		return 0 // no handler registered, let matching continue
	}
	fn := v.(func(*Callout) bool)

	length := int(block.subject_length)
	var subject []byte
	if length > 0 {
		subject = C.GoBytes(unsafe.Pointer(block.subject), C.int(length))
	}

	ovecLen := int(block.capture_top) * 2
	var ovector []C.int
	if ovecLen > 0 && block.offset_vector != nil {
		ovector = unsafe.Slice(block.offset_vector, ovecLen)
	}

	c := &Callout{
		Number:          int(block.callout_number),
		Subject:         subject,
		StartMatch:      int(block.start_match),
		CurrentPosition: int(block.current_position),
		CaptureTop:      int(block.capture_top),
		CaptureLast:     int(block.capture_last),
		ovector:         ovector,
	}

	if fn(c) {
		return 0
	}
	// A negative return value makes pcre_exec abandon the match
	// immediately and surface exactly this code as its result,
	// regardless of backtracking alternatives still available. A
	// plain positive return would only fail the current branch and
	// let the engine try others, which is not what "abort" means here.
	return C.PCRE_ERROR_CALLOUT
}

package pcrescan

import (
	"math"
	"strings"
	"testing"

	"github.com/brinkqiang/fmt-scan/internal/window"
)

func TestScanLineByLine(t *testing.T) {
	src := strings.NewReader("hello\nworld\n")
	p := MustCompile(`(.*)\n`)

	var line string
	n, err := Scan(src, p, String(&line))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 1 || line != "hello" {
		t.Fatalf("got (%d, %q), want (1, %q)", n, line, "hello")
	}

	n, err = Scan(src, p, String(&line))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 1 || line != "world" {
		t.Fatalf("got (%d, %q), want (1, %q)", n, line, "world")
	}

	n, err = Scan(src, p, String(&line))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 0 {
		t.Fatalf("third scan = %d, want 0", n)
	}
}

func TestScanNamedField(t *testing.T) {
	src := strings.NewReader("  name : 42\n")
	p := MustCompile(`\s*(.*?)\s*:\s*(\d+)\s*\n`)

	var name string
	var value int64
	n, err := Scan(src, p, String(&name), Int(&value, 10, 64))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 2 || name != "name" || value != 42 {
		t.Fatalf("got (%d, %q, %d), want (2, %q, 42)", n, name, value, "name")
	}
}

func TestScanNoMatchLeavesStreamAndDestUntouched(t *testing.T) {
	src := strings.NewReader("abc")
	p := MustCompile(`(\d+)`)

	dest := []byte("untouched")
	n, err := Scan(src, p, Bytes(&dest))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 0 {
		t.Fatalf("n = %d, want 0", n)
	}
	if string(dest) != "untouched" {
		t.Fatalf("dest = %q, want untouched", dest)
	}
}

func TestScanCalloutsCollectsEachCapture(t *testing.T) {
	src := strings.NewReader("a\nb\nc\n")
	p := MustCompile(`(?:(.*)\n(?C))*`)

	var got []string
	n, err := ScanCallouts(src, p, func(rec CaptureRecord) bool {
		got = append(got, string(rec.Bytes))
		return true
	})
	if err != nil {
		t.Fatalf("ScanCallouts: %v", err)
	}
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestScanCalloutsAbortReturnsNegativeOne(t *testing.T) {
	src := strings.NewReader("a\nb\nc\n")
	p := MustCompile(`(?:(.*)\n(?C))*`)

	count := 0
	n, err := ScanCallouts(src, p, func(rec CaptureRecord) bool {
		count++
		return count < 2
	})
	if n != -1 {
		t.Fatalf("n = %d, want -1", n)
	}
	if err != ErrAborted {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
}

func TestScanIntegerOverflowReportsConversionError(t *testing.T) {
	text := "99999999999999999999"
	src := window.New(strings.NewReader(text))
	p := MustCompile(`(\d+)`)

	var v int64
	n, err := ScanSource(src, p, Int(&v, 10, 32))
	if n != 0 {
		t.Fatalf("n = %d, want 0", n)
	}
	var convErr *ConversionError
	if err == nil {
		t.Fatal("expected a conversion error")
	}
	if !asConversionError(err, &convErr) {
		t.Fatalf("err = %v, want *ConversionError", err)
	}

	// The overall match still succeeded, so the stream is consumed by
	// the match length even though conversion failed.
	src.BeginScan()
	w, err := src.CurrentWindow()
	if err != nil {
		t.Fatalf("CurrentWindow: %v", err)
	}
	if len(w) != 0 {
		t.Fatalf("stream not fully consumed: %d bytes remain", len(w))
	}
}

func TestScanFloatNaN(t *testing.T) {
	src := strings.NewReader("nan")
	p := MustCompile(`(nan|inf|[-+]?\d+\.\d+)`)

	var f float64
	n, err := Scan(src, p, Float(&f, 64))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	if !math.IsNaN(f) {
		t.Fatalf("f = %v, want NaN", f)
	}
}

func TestScanEmptyPatternMatchesEmptyString(t *testing.T) {
	src := strings.NewReader("anything")
	p := MustCompile(``)

	n, err := Scan(src, p)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 0 {
		t.Fatalf("n = %d, want 0", n)
	}
}

func asConversionError(err error, target **ConversionError) bool {
	if ce, ok := err.(*ConversionError); ok {
		*target = ce
		return true
	}
	return false
}


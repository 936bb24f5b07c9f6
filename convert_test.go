package pcrescan

import (
	"math"
	"testing"
)

func TestBytesDestCopiesRange(t *testing.T) {
	var dst []byte
	src := []byte("hello")
	if err := Bytes(&dst).Convert(src); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if string(dst) != "hello" {
		t.Fatalf("dst = %q, want %q", dst, "hello")
	}
	src[0] = 'X'
	if string(dst) != "hello" {
		t.Fatal("Bytes dest aliased the source slice")
	}
}

func TestIntDestOverflow(t *testing.T) {
	var v int64
	d := Int(&v, 10, 8)
	if err := d.Convert([]byte("1000")); err == nil {
		t.Fatal("expected an overflow error for a value out of int8 range")
	}
}

func TestIntDestSuccess(t *testing.T) {
	var v int64
	d := Int(&v, 10, 64)
	if err := d.Convert([]byte("-42")); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if v != -42 {
		t.Fatalf("v = %d, want -42", v)
	}
}

func TestFloatDestAcceptsInfinity(t *testing.T) {
	var f float64
	d := Float(&f, 64)
	if err := d.Convert([]byte("-Infinity")); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !math.IsInf(f, -1) {
		t.Fatalf("f = %v, want -Inf", f)
	}
}

func TestBoolDestRecognizesTokens(t *testing.T) {
	var b bool
	d := Bool(&b)

	if err := d.Convert([]byte("true")); err != nil || !b {
		t.Fatalf("Convert(true): b=%v err=%v", b, err)
	}
	if err := d.Convert([]byte("0")); err != nil || b {
		t.Fatalf("Convert(0): b=%v err=%v", b, err)
	}
	if err := d.Convert([]byte("maybe")); err == nil {
		t.Fatal("expected an error for an unrecognized boolean token")
	}
}

func TestStringDestCopiesRange(t *testing.T) {
	var s string
	d := String(&s)
	b := []byte("captured")
	if err := d.Convert(b); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if s != "captured" {
		t.Fatalf("s = %q, want %q", s, "captured")
	}
	b[0] = 'X'
	if s != "captured" {
		t.Fatal("String dest aliased the source slice")
	}
}

package pcrescan

import "testing"

func TestCompileRejectsInvalidPattern(t *testing.T) {
	_, err := Compile(`(unclosed`)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	var pe *PatternError
	if pe2, ok := err.(*PatternError); ok {
		pe = pe2
	}
	if pe == nil {
		t.Fatalf("err = %v (%T), want *PatternError", err, err)
	}
}

func TestMaxCaptureIndex(t *testing.T) {
	p := MustCompile(`(\d+)-(\w+)`)
	if got := p.MaxCaptureIndex(); got != 2 {
		t.Fatalf("MaxCaptureIndex() = %d, want 2", got)
	}
}

func TestCalloutsEnumeratesDescriptors(t *testing.T) {
	p := MustCompile(`(a)(?C3)(b)(?C)`)
	got := p.Callouts()
	if len(got) != 2 {
		t.Fatalf("len(Callouts()) = %d, want 2", len(got))
	}
	if got[0].NumericMark != 3 {
		t.Fatalf("got[0].NumericMark = %d, want 3", got[0].NumericMark)
	}
	if got[1].NumericMark != 0 {
		t.Fatalf("got[1].NumericMark = %d, want 0", got[1].NumericMark)
	}
}

func TestCalloutsIgnoresCharacterClassContent(t *testing.T) {
	p := MustCompile(`[(?C]+`)
	if got := p.Callouts(); len(got) != 0 {
		t.Fatalf("Callouts() = %v, want none", got)
	}
}

func TestDisableJITBeforeFirstUse(t *testing.T) {
	p := MustCompile(`abc`)
	p.DisableJIT()
	p.ensureStudied()
	if p.studyErr != nil {
		t.Fatalf("studyErr = %v, want nil when JIT disabled", p.studyErr)
	}
}

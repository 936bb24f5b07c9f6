package pcre

import "testing"

func TestSetCalloutInvokedPerMark(t *testing.T) {
	re := MustCompile(`(?:(.)(?C1))*`, 0)
	m := re.NewMatcher()

	var marks []int
	m.SetCallout(func(c *Callout) bool {
		marks = append(marks, c.Number)
		return true
	})

	rc := m.Exec([]byte("abc"), 0)
	if rc < 0 {
		t.Fatalf("Exec returned %d, want a successful match", rc)
	}
	if len(marks) == 0 {
		t.Fatal("expected at least one callout invocation")
	}
	for _, n := range marks {
		if n != 1 {
			t.Fatalf("callout number = %d, want 1", n)
		}
	}
}

func TestSetCalloutAbortStopsMatch(t *testing.T) {
	re := MustCompile(`(?:(.)(?C1))*`, 0)
	m := re.NewMatcher()

	m.SetCallout(func(c *Callout) bool {
		return false
	})

	rc := m.Exec([]byte("abc"), 0)
	if rc != ERROR_CALLOUT {
		t.Fatalf("Exec returned %d, want ERROR_CALLOUT (%d)", rc, ERROR_CALLOUT)
	}
}

func TestSetCalloutNilDisarms(t *testing.T) {
	re := MustCompile(`(?:(.)(?C1))*`, 0)
	m := re.NewMatcher()

	called := false
	m.SetCallout(func(c *Callout) bool {
		called = true
		return true
	})
	m.SetCallout(nil)

	rc := m.Exec([]byte("abc"), 0)
	if rc < 0 {
		t.Fatalf("Exec returned %d, want a successful match", rc)
	}
	if called {
		t.Fatal("callout fired after being disarmed")
	}
}

func TestExecAtStartsFromOffset(t *testing.T) {
	re := MustCompile(`\d+`, 0)
	m := re.NewMatcher()

	rc := m.ExecAt([]byte("ab123"), 2, 0)
	if rc < 0 {
		t.Fatalf("ExecAt returned %d, want a successful match", rc)
	}
	if got := string(m.Group(0)); got != "123" {
		t.Fatalf("Group(0) = %q, want %q", got, "123")
	}
}

func TestCalloutLastCapture(t *testing.T) {
	re := MustCompile(`(a+)(?C1)b`, 0)
	m := re.NewMatcher()

	var got string
	m.SetCallout(func(c *Callout) bool {
		start, end := c.LastCapture()
		got = string(c.Subject[start:end])
		return true
	})

	rc := m.Exec([]byte("aaab"), 0)
	if rc < 0 {
		t.Fatalf("Exec returned %d, want a successful match", rc)
	}
	if got != "aaa" {
		t.Fatalf("LastCapture text = %q, want %q", got, "aaa")
	}
}

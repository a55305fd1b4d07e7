package ringbuffer

import "testing"

func TestAppendAndTop(t *testing.T) {
	rb := New("idle", KindFloat, 4, "pct", false, true)
	if !rb.IsEmpty() {
		t.Fatalf("expected empty RB")
	}
	if rb.Top().FloatValue() != 0 {
		t.Fatalf("empty RB top should be zero value")
	}
	rb.Append(5.0)
	rb.Append(6.5)
	if got := rb.Top().FloatValue(); got != 6.5 {
		t.Fatalf("top = %v, want 6.5", got)
	}
}

func TestEviction(t *testing.T) {
	rb := New("x", KindInt, 3, "", false, true)
	for i := 1; i <= 5; i++ {
		rb.Append(i)
	}
	if rb.Len() != 3 {
		t.Fatalf("len = %d, want 3", rb.Len())
	}
	vals, ok := rb.Tops(3)
	if !ok {
		t.Fatalf("expected full window")
	}
	want := []int64{3, 4, 5}
	for i, v := range vals {
		if v.IntValue() != want[i] {
			t.Fatalf("tops[%d] = %d, want %d", i, v.IntValue(), want[i])
		}
	}
}

func TestStringZeroValue(t *testing.T) {
	rb := New("s", KindString, 4, "", false, false)
	if rb.Top().StringValue() != "" {
		t.Fatalf("empty string RB should read \"\"")
	}
}

func TestDeltaCounterScenario(t *testing.T) {
	// spec.md §8 scenario 2: counter delta
	rb := New("rx_drop", KindInt, 60, "pkts", true, true)
	for _, v := range []int{100, 100, 105, 110} {
		rb.Append(v)
	}
	d, ok := rb.Dynamicity(3)
	if !ok {
		t.Fatalf("expected sufficient samples")
	}
	if d != 10 {
		t.Fatalf("dynamicity = %v, want 10", d)
	}
}

func TestInsufficientSamples(t *testing.T) {
	// spec.md §8 scenario 3
	rb := New("x", KindInt, 60, "", true, true)
	rb.Append(1)
	rb.Append(2)
	rb.Append(3)
	if _, ok := rb.Dynamicity(20); ok {
		t.Fatalf("expected insufficient-samples signal")
	}
}

func TestCounterWrapTreatedAsNoMatch(t *testing.T) {
	rb := New("x", KindInt, 60, "", true, true)
	rb.Append(1000)
	rb.Append(5) // wraps: negative delta
	if _, ok := rb.Dynamicity(1); ok {
		t.Fatalf("expected wrap to be treated as insufficient/no-match")
	}
}

func TestHasChanged(t *testing.T) {
	rb := New("state", KindString, 60, "", false, true)
	rb.Append("up")
	rb.Append("up")
	rb.Append("down")
	changed, ok := rb.HasChanged(3)
	if !ok || !changed {
		t.Fatalf("expected changed=true")
	}
	changed, ok = rb.HasChanged(2)
	if !ok {
		t.Fatalf("expected ok")
	}
	if changed != true {
		// up, down differ
		t.Fatalf("expected change in last 2 samples")
	}
}

func TestTopSeverity(t *testing.T) {
	rb := New("load", KindFloat, 60, "", false, true)
	for i := 0; i < 10; i++ {
		rb.Append(1.0)
	}
	rb.Append(200.0) // > 10x mean of ~19.1
	if sev := rb.TopSeverity(); sev != Red {
		t.Fatalf("severity = %v, want Red", sev)
	}
}

func TestMeanMinMax(t *testing.T) {
	rb := New("x", KindInt, 60, "", false, true)
	for _, v := range []int{1, 2, 3, 4} {
		rb.Append(v)
	}
	if rb.Mean(0) != 2.5 {
		t.Fatalf("mean = %v, want 2.5", rb.Mean(0))
	}
	if rb.Min() != 1 || rb.Max() != 4 {
		t.Fatalf("min/max = %v/%v", rb.Min(), rb.Max())
	}
}

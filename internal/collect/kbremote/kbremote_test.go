package kbremote

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edeline-labs/assurance-agent/internal/store"
)

type fakeDialer struct {
	fails int32
	n     int32
}

func (f *fakeDialer) Fetch(_ context.Context) (Sample, error) {
	n := atomic.AddInt32(&f.n, 1)
	if n <= atomic.LoadInt32(&f.fails) {
		return Sample{}, errors.New("unreachable")
	}
	return Sample{
		CPU: map[string]map[string]int64{"cpu0": {"idle": 100 * int64(n)}},
		Net: map[string]map[string]int64{"eth0": {"rx_bytes": 10 * int64(n)}},
	}, nil
}

func TestPollerWritesSuccessfulSamples(t *testing.T) {
	st := store.New()
	d := &fakeDialer{}
	p := NewPoller(d, "kb1", 5*time.Millisecond, 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	p.Run(ctx, st)

	cpu, ok := st.LookupBucket("vpp/cpu")
	if !ok {
		t.Fatalf("expected vpp/cpu bucket to have been written")
	}
	cpu0, ok := cpu.LookupChild("cpu0")
	if !ok {
		t.Fatalf("expected cpu0 child")
	}
	if _, ok := cpu0.LookupRB("idle"); !ok {
		t.Fatalf("expected idle RB to have samples")
	}

	ifc, ok := st.LookupBucket("vpp/if")
	if !ok {
		t.Fatalf("expected vpp/if bucket to have been written")
	}
	if _, ok := ifc.LookupChild("eth0"); !ok {
		t.Fatalf("expected eth0 child")
	}
}

func TestPollerToleratesFetchErrors(t *testing.T) {
	st := store.New()
	d := &fakeDialer{fails: 100} // always fails within the test window
	p := NewPoller(d, "kb1", 5*time.Millisecond, 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	p.Run(ctx, st) // must return on ctx cancellation, not hang or panic

	if _, ok := st.LookupBucket("vpp/cpu"); ok {
		t.Fatalf("expected no vpp/cpu bucket when every fetch fails")
	}
}

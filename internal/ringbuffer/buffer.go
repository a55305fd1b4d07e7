package ringbuffer

// DefaultCapacity is the default number of retained samples per metric,
// per spec.md §3 ("bounded FIFO (default capacity 60)").
const DefaultCapacity = 60

// RB is a fixed-capacity FIFO of typed scalar samples. Appends are
// O(1); once full, the oldest sample is evicted. RBs are not
// individually locked (spec.md §5): callers hold their enclosing
// store bucket's lock, if any, for the duration of a batch of writes
// or a read.
type RB struct {
	name    string
	unit    string
	kind    Kind
	counter bool
	metric  bool

	data  []Value
	start int // index of the oldest sample
	size  int
	cap   int
}

// New creates a RB with the given declared kind and capacity.
func New(name string, kind Kind, capacity int, unit string, counter, metric bool) *RB {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RB{
		name:    name,
		unit:    unit,
		kind:    kind,
		counter: counter,
		metric:  metric,
		data:    make([]Value, capacity),
		cap:     capacity,
	}
}

func (b *RB) Name() string    { return b.name }
func (b *RB) Unit() string    { return b.unit }
func (b *RB) Kind() Kind      { return b.kind }
func (b *RB) IsCounter() bool { return b.counter }
func (b *RB) IsMetric() bool  { return b.metric }
func (b *RB) Len() int        { return b.size }
func (b *RB) Cap() int        { return b.cap }
func (b *RB) IsEmpty() bool   { return b.size == 0 }

// Append casts e to the RB's declared kind and pushes it, evicting the
// oldest sample if the buffer is full.
func (b *RB) Append(e any) {
	v := valueOf(b.kind, e)
	if b.size < b.cap {
		idx := (b.start + b.size) % b.cap
		b.data[idx] = v
		b.size++
		return
	}
	b.data[b.start] = v
	b.start = (b.start + 1) % b.cap
}

// at returns the i-th oldest sample (0 == oldest). Caller must ensure
// 0 <= i < size.
func (b *RB) at(i int) Value {
	return b.data[(b.start+i)%b.cap]
}

// Top returns the most recently appended value, or the kind's zero
// value if the RB is empty.
func (b *RB) Top() Value {
	if b.size == 0 {
		return zero(b.kind)
	}
	return b.at(b.size - 1)
}

// Tops returns the last k values, oldest first. If fewer than k
// samples exist, it returns all of them (ok=false signals the caller
// the window was not full, per the insufficient-samples rule in
// spec.md §4.1).
func (b *RB) Tops(k int) (values []Value, ok bool) {
	if k <= 0 {
		return nil, true
	}
	if k > b.size {
		values = make([]Value, b.size)
		for i := 0; i < b.size; i++ {
			values[i] = b.at(i)
		}
		return values, false
	}
	values = make([]Value, k)
	for i := 0; i < k; i++ {
		values[i] = b.at(b.size - k + i)
	}
	return values, true
}

// Mean returns the mean of the last count samples (0 means the whole
// buffer). Non-numeric RBs always report 0.
func (b *RB) Mean(count int) float64 {
	if b.kind == KindString || b.size == 0 {
		return 0
	}
	if count <= 0 || count > b.size {
		count = b.size
	}
	vals, _ := b.Tops(count)
	var sum float64
	for _, v := range vals {
		sum += v.Num
	}
	return sum / float64(len(vals))
}

// Min returns the minimum numeric sample in the buffer, 0 if empty or
// non-numeric.
func (b *RB) Min() float64 {
	if b.kind == KindString || b.size == 0 {
		return 0
	}
	m := b.at(0).Num
	for i := 1; i < b.size; i++ {
		if v := b.at(i).Num; v < m {
			m = v
		}
	}
	return m
}

// Max returns the maximum numeric sample in the buffer, 0 if empty or
// non-numeric.
func (b *RB) Max() float64 {
	if b.kind == KindString || b.size == 0 {
		return 0
	}
	m := b.at(0).Num
	for i := 1; i < b.size; i++ {
		if v := b.at(i).Num; v > m {
			m = v
		}
	}
	return m
}

// Delta returns last − element at index −count−1, per
// spec.md §4.1. ok is false when fewer than count+1 samples exist
// ("insufficient" — the caller should skip the sample).
func (b *RB) Delta(count int) (delta float64, ok bool) {
	if b.kind == KindString || b.size == 0 {
		return 0, false
	}
	back := count + 1
	if back > b.size {
		return 0, false
	}
	first := b.at(b.size - back)
	last := b.at(b.size - 1)
	return last.Num - first.Num, true
}

// HasChanged reports whether the last count values are not all equal.
// ok is false if fewer than count samples exist.
func (b *RB) HasChanged(count int) (changed bool, ok bool) {
	if count <= 0 {
		count = b.size
	}
	if count > b.size || b.size == 0 {
		return false, false
	}
	vals, _ := b.Tops(count)
	last := vals[len(vals)-1]
	for _, v := range vals {
		if !v.Equal(last) {
			return true, true
		}
	}
	return false, true
}

// Dynamicity returns delta() for counters, hasChanged() (as 0/1) for
// strings, mean() otherwise, per spec.md §3. ok is false when the
// underlying windowed operation reports insufficient samples, or when
// a counter delta goes negative (treated as a wrap/reset — see
// DESIGN.md "Open Questions resolved").
func (b *RB) Dynamicity(count int) (value float64, ok bool) {
	switch {
	case b.kind == KindString:
		changed, ok := b.HasChanged(count)
		if !ok {
			return 0, false
		}
		if changed {
			return 1, true
		}
		return 0, true
	case b.counter:
		d, ok := b.Delta(count)
		if !ok {
			return 0, false
		}
		if d < 0 {
			return 0, false
		}
		return d, true
	default:
		if count > b.size {
			return 0, false
		}
		return b.Mean(count), true
	}
}

// TopSeverity raises to Orange when the last value exceeds 3x the
// mean, Red when it exceeds 10x the mean. Only meaningful for gauges
// (non-counter numeric RBs); always Green otherwise.
func (b *RB) TopSeverity() Severity {
	if b.counter || b.kind == KindString || b.size == 0 {
		return Green
	}
	mean := b.Mean(0)
	top := b.Top().Num
	if mean == 0 {
		return Green
	}
	switch {
	case top > mean*10:
		return Red
	case top > mean*3:
		return Orange
	default:
		return Green
	}
}

// DynamicitySeverity is Orange when a string RB just changed value,
// Green otherwise.
func (b *RB) DynamicitySeverity() Severity {
	if b.kind != KindString {
		return Green
	}
	changed, ok := b.HasChanged(0)
	if ok && changed {
		return Orange
	}
	return Green
}

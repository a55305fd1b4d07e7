package ringbuffer

import "fmt"

// Value is a single sample. Exactly one of Num/Str is meaningful,
// selected by Kind, mirroring the RB's declared scalar Kind.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

// IntValue returns the sample as int64, zero for strings.
func (v Value) IntValue() int64 {
	if v.Kind == KindString {
		return 0
	}
	return int64(v.Num)
}

// FloatValue returns the sample as float64, zero for strings.
func (v Value) FloatValue() float64 {
	if v.Kind == KindString {
		return 0
	}
	return v.Num
}

// StringValue returns the sample's string form.
func (v Value) StringValue() string {
	if v.Kind == KindString {
		return v.Str
	}
	return fmt.Sprintf("%v", v.Num)
}

// Equal reports whether two values are the same under the ring
// buffer's declared kind — used by hasChanged().
func (v Value) Equal(o Value) bool {
	if v.Kind == KindString || o.Kind == KindString {
		return v.StringValue() == o.StringValue()
	}
	return v.Num == o.Num
}

func zero(k Kind) Value {
	return Value{Kind: k}
}

func valueOf(k Kind, e any) Value {
	switch k {
	case KindInt:
		return Value{Kind: KindInt, Num: float64(toInt64(e))}
	case KindFloat:
		return Value{Kind: KindFloat, Num: toFloat64(e)}
	default:
		return Value{Kind: KindString, Str: toString(e)}
	}
}

func toInt64(e any) int64 {
	switch x := e.(type) {
	case int:
		return int64(x)
	case int64:
		return x
	case float64:
		return int64(x)
	case float32:
		return int64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		var n int64
		fmt.Sscanf(x, "%d", &n)
		return n
	default:
		return 0
	}
}

func toFloat64(e any) float64 {
	switch x := e.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case float32:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		var f float64
		fmt.Sscanf(x, "%g", &f)
		return f
	default:
		return 0
	}
}

func toString(e any) string {
	if s, ok := e.(string); ok {
		return s
	}
	if b, ok := e.(bool); ok {
		if b {
			return "true"
		}
		return "false"
	}
	return fmt.Sprintf("%v", e)
}

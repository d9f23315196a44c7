package value

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Coerce returns the string form used by the literal comparison.
//
// Numbers use their shortest decimal form so that an int64 binding of 1, a
// float64 binding of 1 and the string "1" all coerce to "1".
func Coerce(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return formatFloat(float64(val), 32)
	case float64:
		return formatFloat(val, 64)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return trimExponent(strconv.FormatFloat(f, 'e', -1, bits))
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// trimExponent rewrites Go exponents ("1e-07", "1e+21") without the
// leading zero ("1e-7", "1e+21").
func trimExponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 || i+2 >= len(s) {
		return s
	}
	mant, sign, exp := s[:i], s[i+1], strings.TrimLeft(s[i+2:], "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + string(sign) + exp
}

// Stringify renders v for assertion messages and diffs.
// Strings are quoted so that "1" and 1 stay distinguishable in output.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(val)
	case []byte:
		return strconv.Quote(string(val))
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case Literal:
		return Stringify(val.Value)
	case JSON:
		return Stringify(val.Value)
	case Pattern:
		if val.Re == nil {
			return "/(?:)/"
		}
		return "/" + val.Re.String() + "/"
	case DateSentinel:
		return "Date"
	case Predicate, func(any) bool:
		return "[predicate]"
	}

	switch exp := Of(v).(type) {
	case Pattern, Predicate:
		return Stringify(exp)
	case JSON:
		if raw, err := json.Marshal(exp.Value); err == nil {
			return string(raw)
		}
		return fmt.Sprintf("%v", exp.Value)
	}

	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Struct {
		if raw, err := json.Marshal(v); err == nil {
			return string(raw)
		}
	}
	return Coerce(v)
}

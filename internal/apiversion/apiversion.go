package apiversion

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Version is a validated API major version number.
type Version int64

// String renders the canonical "v<N>" form.
func (v Version) String() string {
	return "v" + strconv.FormatInt(int64(v), 10)
}

// Parse derives a Version from loosely formatted input.
func Parse(raw any) (Version, error) {
	n, ok := ParseInt(raw)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, Coerce(raw))
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNonPositive, Coerce(raw))
	}
	return Version(n), nil
}

// ParseInt returns the leading integer of the canonicalized input.
// ok is false when the input has no leading digit after canonicalization.
func ParseInt(raw any) (n int64, ok bool) {
	stripped := Canonicalize(Coerce(raw))

	end := 0
	for end < len(stripped) && isDigit(stripped[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.ParseInt(stripped[:end], 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return math.MaxInt64, true
		}
		return 0, false
	}
	return n, true
}

// Canonicalize removes every character that is not an ASCII digit or '.'.
func Canonicalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; isDigit(c) || c == '.' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Coerce returns the string form of a version candidate. nil becomes "".
func Coerce(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

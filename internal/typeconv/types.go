package typeconv

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// DateTimeLayout is the text form SQL Server accepts for datetime2 columns.
const DateTimeLayout = "2006-01-02 15:04:05.9999999"

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05.9999999"
	isoLayout  = "2006-01-02T15:04:05"
)

// Normalize converts a value into a form the ODBC driver binds without loss:
// decimals become text, ISO-8601 timestamp text and civil values become
// SQL Server datetime text. Anything else is returned as is.
func Normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.String()
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
		return x.String()
	case decimal.NullDecimal:
		if !x.Valid {
			return nil
		}
		return x.Decimal.String()
	case civil.Date:
		return x.In(time.UTC).Format(dateLayout)
	case civil.Time:
		return civilTime(x)
	case civil.DateTime:
		return x.Date.In(time.UTC).Format(dateLayout) + " " + civilTime(x.Time)
	case string:
		if s, ok := ISOTimestamp(x); ok {
			return s
		}
		return x
	default:
		return v
	}
}

// NormalizeAll applies Normalize to every value, returning a new slice.
func NormalizeAll(vals []interface{}) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = Normalize(v)
	}
	return out
}

func civilTime(t civil.Time) string {
	return time.Date(2000, 1, 1, t.Hour, t.Minute, t.Second, t.Nanosecond, time.UTC).Format(timeLayout)
}

// ISOTimestamp rewrites an ISO-8601 timestamp such as
// "2021-03-04T05:06:07.123-00:00" into "2021-03-04 05:06:07.123".
// The wall clock is kept and any zone designator is dropped.
// ok is false when s is not a timestamp.
func ISOTimestamp(s string) (string, bool) {
	if len(s) < len(isoLayout) || s[4] != '-' || s[10] != 'T' {
		return "", false
	}
	t, err := time.Parse(isoLayout, stripZone(s))
	if err != nil {
		return "", false
	}
	return t.Format(DateTimeLayout), true
}

// stripZone removes a trailing "Z", "±HH:MM" or "±HHMM" after the time part.
func stripZone(s string) string {
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		return s[:len(s)-1]
	}
	clock := s[len(isoLayout)-len("15:04:05"):]
	for _, n := range []int{len("-00:00"), len("-0000")} {
		if len(clock) <= len("15:04:05") || len(clock)-n < len("15:04:05") {
			continue
		}
		off := clock[len(clock)-n:]
		if (off[0] == '+' || off[0] == '-') && isOffset(off[1:]) {
			return s[:len(s)-n]
		}
	}
	return s
}

func isOffset(s string) bool {
	var h, m int
	var err error
	if strings.Contains(s, ":") {
		_, err = fmt.Sscanf(s, "%2d:%2d", &h, &m)
	} else {
		_, err = fmt.Sscanf(s, "%2d%2d", &h, &m)
	}
	return err == nil && len(strings.Trim(s, "0123456789:")) == 0 && h < 24 && m < 60
}

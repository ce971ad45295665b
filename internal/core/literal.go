package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Literal renders v as a T-SQL literal for inlining into statement text.
// Strings are emitted as N'...' with embedded quotes doubled.
func Literal(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", ErrNilKey
	case int:
		return strconv.Itoa(x), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case decimal.Decimal:
		return x.String(), nil
	case string:
		return quoteString(x), nil
	case []byte:
		return quoteString(string(x)), nil
	case time.Time:
		return quoteString(x.Format("2006-01-02 15:04:05.9999999")), nil
	case fmt.Stringer:
		return quoteString(x.String()), nil
	default:
		return "", fmt.Errorf("cannot render %T as a SQL literal", v)
	}
}

func quoteString(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

package typeconv

import (
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestISOTimestamp(t *testing.T) {
	cases := map[string]string{
		"2021-03-04T05:06:07.123-00:00":    "2021-03-04 05:06:07.123",
		"2021-03-04T05:06:07Z":             "2021-03-04 05:06:07",
		"2021-03-04T05:06:07":              "2021-03-04 05:06:07",
		"2021-03-04T23:59:59.5+05:30":      "2021-03-04 23:59:59.5",
		"2021-03-04T05:06:07-0800":         "2021-03-04 05:06:07",
		"2021-03-04T05:06:07.123456789Z":   "2021-03-04 05:06:07.1234567",
		"2021-03-04T05:06:07.100000-04:00": "2021-03-04 05:06:07.1",
	}
	for in, want := range cases {
		got, ok := ISOTimestamp(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
}

func TestISOTimestamp_NotATimestamp(t *testing.T) {
	for _, in := range []string{
		"",
		"hello",
		"2021-03-04",
		"2021-03-04 05:06:07",
		"2021-13-04T05:06:07",
		"some text that is long enough",
	} {
		_, ok := ISOTimestamp(in)
		assert.False(t, ok, in)
	}
}

func TestNormalize(t *testing.T) {
	d := decimal.RequireFromString("19.990")
	assert.Equal(t, "19.99", Normalize(d))
	assert.Equal(t, "19.99", Normalize(&d))
	assert.Equal(t, "19.99", Normalize(decimal.NullDecimal{Decimal: d, Valid: true}))
	assert.Nil(t, Normalize(decimal.NullDecimal{}))
	assert.Nil(t, Normalize((*decimal.Decimal)(nil)))

	assert.Equal(t, "2021-03-04 05:06:07.123", Normalize("2021-03-04T05:06:07.123-00:00"))
	assert.Equal(t, "plain", Normalize("plain"))

	assert.Equal(t, "2020-02-29", Normalize(civil.Date{Year: 2020, Month: time.February, Day: 29}))
	assert.Equal(t, "08:30:00.25", Normalize(civil.Time{Hour: 8, Minute: 30, Nanosecond: 250000000}))
	assert.Equal(t, "2020-02-29 08:30:00", Normalize(civil.DateTime{
		Date: civil.Date{Year: 2020, Month: time.February, Day: 29},
		Time: civil.Time{Hour: 8, Minute: 30},
	}))

	assert.Equal(t, 42, Normalize(42))
	assert.Nil(t, Normalize(nil))
	now := time.Now()
	assert.Equal(t, now, Normalize(now))
}

func TestNormalizeAll(t *testing.T) {
	in := []interface{}{decimal.NewFromInt(3), "x", 1}
	out := NormalizeAll(in)
	assert.Equal(t, []interface{}{"3", "x", 1}, out)
	assert.Equal(t, decimal.NewFromInt(3), in[0])
}

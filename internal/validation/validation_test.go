package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRequired(t *testing.T) {
	v := make(Violations)
	Required("name", "", v)
	Required("other", "  ", v)
	Required("ok", "value", v)

	assert.Equal(t, "required", v["name"])
	assert.Equal(t, "required", v["other"])
	assert.NotContains(t, v, "ok")
}

func TestEmail(t *testing.T) {
	cases := map[string]bool{
		"":                true, // optional: empty passes
		"a@b.com":         true,
		"user@localhost":  true,
		"no-at-sign":      false,
		"@starts-with-at": false,
		"ends-with-at@":   false,
	}
	for input, ok := range cases {
		v := make(Violations)
		Email("email", input, v)
		assert.Equal(t, ok, v.Empty(), "input %q", input)
	}
}

func TestPercentage(t *testing.T) {
	for _, c := range []struct {
		val string
		ok  bool
	}{
		{"0", true}, {"100", true}, {"19.6", true},
		{"-0.01", false}, {"100.01", false},
	} {
		v := make(Violations)
		d, _ := decimal.NewFromString(c.val)
		Percentage("rate", d, v)
		assert.Equal(t, c.ok, v.Empty(), "value %s", c.val)
	}
}

func TestDate(t *testing.T) {
	v := make(Violations)
	got := Date("invoice_date", "2026-01-10", v)
	assert.True(t, v.Empty())
	assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), got)

	v = make(Violations)
	assert.True(t, Date("d", "", v).IsZero())
	assert.Equal(t, "required", v["d"])

	v = make(Violations)
	assert.True(t, Date("d", "10/01/2026", v).IsZero())
	assert.Equal(t, "invalid_date", v["d"])
}

func TestDateNotBefore(t *testing.T) {
	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	v := make(Violations)
	DateNotBefore("due_date", jan, feb, v)
	assert.Equal(t, "must_not_be_before_invoice_date", v["due_date"])

	v = make(Violations)
	DateNotBefore("due_date", feb, jan, v)
	DateNotBefore("due_date", jan, jan, v) // same day is fine
	assert.True(t, v.Empty())

	// Zero values already carry their own violation; no double-report.
	v = make(Violations)
	DateNotBefore("due_date", time.Time{}, jan, v)
	assert.True(t, v.Empty())
}

func TestMerge(t *testing.T) {
	v := Violations{"a": "required"}
	v.Merge(Violations{"b": "invalid_email", "a": "too_short"})
	assert.Equal(t, "too_short", v["a"])
	assert.Equal(t, "invalid_email", v["b"])
}

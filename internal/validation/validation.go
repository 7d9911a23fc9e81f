package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Violations collects field-level validation errors. Every failing field is
// reported, not just the first one; keys for repeated sub-records use the
// items.N.field form.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Merge copies all violations from other into v.
func (v Violations) Merge(other Violations) {
	for field, code := range other {
		v[field] = code
	}
}

// Basic validators

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// Email requires an "@" in a non-empty value. Intentionally loose: the mail
// server is the real validator.
func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	at := strings.Index(value, "@")
	if at < 1 || at == len(value)-1 {
		v[field] = "invalid_email"
	}
}

func MinInt(field string, val, minVal int, v Violations) {
	if val < minVal {
		v[field] = fmt.Sprintf("must_be_at_least_%d", minVal)
	}
}

func NonNegative(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v[field] = "must_not_be_negative"
	}
}

// Percentage validates a rate in [0,100].
func Percentage(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() || val.GreaterThan(decimal.NewFromInt(100)) {
		v[field] = "out_of_range"
	}
}

// Date parses a required YYYY-MM-DD value, recording a violation on failure.
// The zero time is returned when the value is missing or malformed.
func Date(field, value string, v Violations) time.Time {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		v[field] = "invalid_date"
		return time.Time{}
	}
	return t
}

// DateNotBefore records a violation on field if d is before ref.
// Zero values are skipped; their own Date violation already covers them.
func DateNotBefore(field string, d, ref time.Time, v Violations) {
	if d.IsZero() || ref.IsZero() {
		return
	}
	if d.Before(ref) {
		v[field] = "must_not_be_before_invoice_date"
	}
}

// OneOf records a violation unless value matches one of the allowed strings.
func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "invalid_value"
}

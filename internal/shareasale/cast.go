package shareasale

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Caster converts one raw CSV cell into its typed value.
type Caster func(raw string) (any, error)

// Casters resolves the Caster for a normalized column name. A nil Caster keeps
// the raw string. *Schema implements it.
type Casters interface {
	Caster(column string) Caster
}

// CastFunc adapts a function of (value, column) into Casters.
type CastFunc func(value, column string) (any, error)

func (f CastFunc) Caster(column string) Caster {
	if f == nil {
		return nil
	}
	return func(raw string) (any, error) {
		return f(raw, column)
	}
}

// CastError reports a cell that does not satisfy its column's rule.
type CastError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("row %d column %s: cannot cast %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *CastError) Unwrap() error {
	return e.Err
}

func casterFor(t FieldType) Caster {
	switch t {
	case FieldInteger:
		return castInteger
	case FieldCurrency:
		return castCurrency
	case FieldPercent:
		return castPercent
	default:
		return nil
	}
}

func castInteger(raw string) (any, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	return strconv.ParseInt(s, 10, 64)
}

// castCurrency accepts an optional sign, an optional "$" and thousands separators.
func castCurrency(raw string) (any, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	if strings.HasPrefix(s, "-") && !neg {
		neg = true
		s = s[1:]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// castPercent turns "12.5%" into 0.125.
func castPercent(raw string) (any, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return v / 100, nil
}

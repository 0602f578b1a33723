package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Precision is the number of decimal places every Amount is rounded to.
const Precision = 2

var printer = message.NewPrinter(language.English)

// Amount is a monetary value rounded half away from zero to Precision places.
// Every constructor and every arithmetic result is re-rounded, so equality
// compares rounded values.
type Amount struct {
	d decimal.Decimal
}

var Zero = Amount{}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{d: d.Round(Precision)}
}

func AmountFromInt(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

func AmountFromFloat(v float64) Amount {
	return NewAmount(decimal.NewFromFloat(v))
}

// ParseAmount accepts plain decimals and thousands-separated input ("1,234.50").
func ParseAmount(s string) (Amount, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return Zero, fmt.Errorf("parse amount: empty value")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return NewAmount(d), nil
}

func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// LocalAmount converts an amount in a posting currency to the local currency.
func LocalAmount(amount Amount, rate decimal.Decimal) Amount {
	return NewAmount(amount.d.Mul(rate))
}

func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) Add(b Amount) Amount { return NewAmount(a.d.Add(b.d)) }
func (a Amount) Sub(b Amount) Amount { return NewAmount(a.d.Sub(b.d)) }
func (a Amount) Mul(b Amount) Amount { return NewAmount(a.d.Mul(b.d)) }

// Div panics on a zero divisor, like decimal.Decimal.Div.
func (a Amount) Div(b Amount) Amount { return NewAmount(a.d.Div(b.d)) }

func (a Amount) Neg() Amount { return NewAmount(a.d.Neg()) }
func (a Amount) Abs() Amount { return NewAmount(a.d.Abs()) }

func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }
func (a Amount) IsZero() bool { return a.d.IsZero() }
func (a Amount) IsPositive() bool { return a.d.IsPositive() }
func (a Amount) IsNegative() bool { return a.d.IsNegative() }
func (a Amount) Sign() int { return a.d.Sign() }

// Plain renders the amount without grouping, e.g. "-1234.50".
func (a Amount) Plain() string {
	return a.d.StringFixed(Precision)
}

// String renders the amount with thousands separators, e.g. "-1,234.50".
func (a Amount) String() string {
	abs := a.d.Abs()
	fixed := abs.StringFixed(Precision)
	frac := fixed[strings.IndexByte(fixed, '.'):]
	s := printer.Sprintf("%d", abs.IntPart()) + frac
	if a.d.IsNegative() {
		return "-" + s
	}
	return s
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Plain())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount must be a string or number: %s", data)
		}
		s = n.String()
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a Amount) Value() (driver.Value, error) {
	return a.Plain(), nil
}

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return a.scanString(v)
	case []byte:
		return a.scanString(string(v))
	case int64:
		*a = AmountFromInt(v)
		return nil
	case float64:
		*a = AmountFromFloat(v)
		return nil
	case nil:
		*a = Zero
		return nil
	default:
		return fmt.Errorf("scan amount: unsupported type %T", src)
	}
}

func (a *Amount) scanString(s string) error {
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Sum adds amounts with re-rounding after every step.
func Sum(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

package risk

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/riskbook/market"
	"github.com/shopspring/decimal"
)

// Violation names one reason a field was rejected.
type Violation struct {
	Field string
	Code  string
	Msg   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Msg)
}

// Validation is the tagged result of checking user input. Valid is true only
// when Violations is empty.
type Validation struct {
	Valid      bool
	Violations []Violation
}

func (v *Validation) add(field, code, msg string) {
	v.Violations = append(v.Violations, Violation{Field: field, Code: code, Msg: msg})
	v.Valid = false
}

// Reason joins all violation messages, empty when valid.
func (v Validation) Reason() string {
	parts := make([]string, 0, len(v.Violations))
	for _, x := range v.Violations {
		parts = append(parts, x.String())
	}
	return strings.Join(parts, "; ")
}

// ParsePositive parses a user typed decimal that must be greater than zero.
// An empty or malformed string yields zero with an invalid result.
func ParsePositive(field, s string) (decimal.Decimal, Validation) {
	v := Validation{Valid: true}
	s = strings.TrimSpace(s)
	if s == "" {
		v.add(field, "MISSING", "value is required")
		return decimal.Zero, v
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		v.add(field, "NOT_A_NUMBER", fmt.Sprintf("%q is not a number", s))
		return decimal.Zero, v
	}
	if !d.IsPositive() {
		v.add(field, "NOT_POSITIVE", "must be greater than zero")
		return decimal.Zero, v
	}
	return d, v
}

// ValidateInputs checks every field of in. Calculate already degrades invalid
// inputs to zero; this explains why.
func ValidateInputs(in Inputs) Validation {
	v := Validation{Valid: true}

	if !in.Instrument.Valid() {
		v.add("instrument", "NO_INSTRUMENT", "select a known instrument")
	}
	switch {
	case !in.RiskPercent.IsPositive():
		v.add("risk_percent", "NOT_POSITIVE", "must be greater than zero")
	case in.RiskPercent.GreaterThan(MaxRiskPercent):
		v.add("risk_percent", "OVER_100", "must not exceed 100")
	}
	if !in.EntryPrice.IsPositive() {
		v.add("entry_price", "NOT_POSITIVE", "must be greater than zero")
	}
	if !in.StopPrice.IsPositive() {
		v.add("stop_loss_price", "NOT_POSITIVE", "must be greater than zero")
	}
	if in.EntryPrice.IsPositive() && in.EntryPrice.Equal(in.StopPrice) {
		v.add("stop_loss_price", "NO_DISTANCE", "must differ from entry price")
	}
	if !in.Balance.IsPositive() {
		v.add("balance", "NOT_POSITIVE", "account balance must be greater than zero")
	}
	return v
}

// ParseInputs builds Inputs from raw text fields, collecting every violation.
// Fields that fail to parse are left at zero.
func ParseInputs(balance decimal.Decimal, symbol, riskPct, entry, stop string) (Inputs, Validation) {
	in := Inputs{Balance: balance}
	all := Validation{Valid: true}

	if inst, err := market.Parse(symbol); err == nil {
		in.Instrument = inst
	}

	var v Validation
	in.RiskPercent, v = ParsePositive("risk_percent", riskPct)
	all.merge(v)
	in.EntryPrice, v = ParsePositive("entry_price", entry)
	all.merge(v)
	in.StopPrice, v = ParsePositive("stop_loss_price", stop)
	all.merge(v)

	for _, x := range ValidateInputs(in).Violations {
		if !all.has(x.Field) {
			all.add(x.Field, x.Code, x.Msg)
		}
	}
	return in, all
}

func (v *Validation) merge(o Validation) {
	for _, x := range o.Violations {
		v.add(x.Field, x.Code, x.Msg)
	}
}

func (v Validation) has(field string) bool {
	for _, x := range v.Violations {
		if x.Field == field {
			return true
		}
	}
	return false
}

// market/instruments.go
package market

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownInstrument is returned when a symbol is not in the registry.
var ErrUnknownInstrument = errors.New("unknown instrument")

// Family groups instruments that share lot and pip conventions.
type Family int

const (
	Forex Family = iota + 1
	Crypto
)

func (f Family) String() string {
	switch f {
	case Forex:
		return "forex"
	case Crypto:
		return "crypto"
	default:
		return "unknown"
	}
}

// Instrument is a registered trading symbol in BASE_QUOTE notation
// (e.g. "EUR_USD", "BTC_USD"). The zero value means no selection.
type Instrument string

type InstrumentMeta struct {
	Name          Instrument
	Family        Family
	BaseCurrency  string
	QuoteCurrency string
	// PipLocation is the power of ten of one pip, -4 for most pairs, -2 for JPY quotes.
	// Crypto pairs carry 0 and measure risk in raw price difference.
	PipLocation int
	// ContractSize is the number of units in 1.0 lot.
	ContractSize decimal.Decimal
}

var (
	forexContract  = decimal.NewFromInt(100_000)
	cryptoContract = decimal.NewFromInt(1)
)

func forex(base, quote string) InstrumentMeta {
	loc := -4
	if quote == "JPY" {
		loc = -2
	}
	return InstrumentMeta{
		Name:          Instrument(base + "_" + quote),
		Family:        Forex,
		BaseCurrency:  base,
		QuoteCurrency: quote,
		PipLocation:   loc,
		ContractSize:  forexContract,
	}
}

func crypto(base, quote string) InstrumentMeta {
	return InstrumentMeta{
		Name:          Instrument(base + "_" + quote),
		Family:        Crypto,
		BaseCurrency:  base,
		QuoteCurrency: quote,
		ContractSize:  cryptoContract,
	}
}

// Instruments is the static registry. Classification is configuration, it is
// never derived from prices.
var Instruments = map[Instrument]InstrumentMeta{}

func init() {
	for _, m := range []InstrumentMeta{
		forex("EUR", "USD"),
		forex("GBP", "USD"),
		forex("USD", "JPY"),
		forex("USD", "CHF"),
		forex("AUD", "USD"),
		forex("USD", "CAD"),
		forex("NZD", "USD"),
		crypto("BTC", "USD"),
		crypto("ETH", "USD"),
		crypto("XRP", "USD"),
		crypto("LTC", "USD"),
		crypto("BCH", "USD"),
		crypto("ADA", "USD"),
		crypto("SOL", "USD"),
	} {
		Instruments[m.Name] = m
	}
}

// Parse accepts "EUR/USD", "EUR_USD", "eur-usd" or a Binance style "BTCUSDT"
// and returns the registered instrument.
func Parse(symbol string) (Instrument, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.NewReplacer("/", "_", "-", "_").Replace(s)
	if _, ok := Instruments[Instrument(s)]; ok {
		return Instrument(s), nil
	}
	if strings.HasSuffix(s, "USDT") {
		in := Instrument(strings.TrimSuffix(s, "USDT") + "_USD")
		if m, ok := Instruments[in]; ok && m.Family == Crypto {
			return in, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownInstrument, symbol)
}

// All returns every registered instrument, forex first, each group sorted.
func All() []Instrument {
	out := make([]Instrument, 0, len(Instruments))
	for in := range Instruments {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool {
		fi, fj := Instruments[out[i]].Family, Instruments[out[j]].Family
		if fi != fj {
			return fi < fj
		}
		return out[i] < out[j]
	})
	return out
}

func (in Instrument) Meta() (InstrumentMeta, bool) {
	m, ok := Instruments[in]
	return m, ok
}

func (in Instrument) Valid() bool {
	_, ok := Instruments[in]
	return ok
}

func (in Instrument) Family() Family {
	return Instruments[in].Family
}

func (in Instrument) IsCrypto() bool { return in.Family() == Crypto }

// PipSize returns 0.01 for JPY quoted pairs and 0.0001 for other forex pairs.
// Crypto instruments return 1, one unit of raw price.
func (in Instrument) PipSize() decimal.Decimal {
	m, ok := Instruments[in]
	if !ok || m.Family == Crypto {
		return decimal.NewFromInt(1)
	}
	return decimal.New(1, int32(m.PipLocation))
}

// ContractSize returns the number of units per 1.0 lot, or zero if unknown.
func (in Instrument) ContractSize() decimal.Decimal {
	return Instruments[in].ContractSize
}

// TwelveData notation, "EUR/USD".
func (in Instrument) TwelveData() string {
	return strings.Replace(string(in), "_", "/", 1)
}

// OANDA notation, "EUR_USD".
func (in Instrument) OANDA() string {
	return string(in)
}

// Binance notation, "BTCUSDT". Binance quotes crypto against USDT.
func (in Instrument) Binance() string {
	m := Instruments[in]
	quote := m.QuoteCurrency
	if quote == "USD" {
		quote = "USDT"
	}
	return m.BaseCurrency + quote
}

func (in Instrument) String() string { return in.TwelveData() }

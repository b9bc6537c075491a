package oanda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rustyeddy/riskbook/market"
	"github.com/shopspring/decimal"
)

const (
	PracticeURL = "https://api-fxpractice.oanda.com"
	LiveURL     = "https://api-fxtrade.oanda.com"
)

// BaseURL maps an environment name to its REST host.
func BaseURL(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "practice", "demo":
		return PracticeURL, nil
	case "live":
		return LiveURL, nil
	default:
		return "", fmt.Errorf("unknown OANDA env %q (want practice|live)", env)
	}
}

// Client reads bid/ask pricing for an account. Quotes are mid priced and
// carry the bid/ask spread.
type Client struct {
	BaseURL   string
	Token     string
	AccountID string
	HTTP      *http.Client
}

func NewClient(baseURL, token, accountID string) *Client {
	return &Client{
		BaseURL:   baseURL,
		Token:     token,
		AccountID: accountID,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
	}
}

type priceBucket struct {
	Price string `json:"price"`
}

type apiPrice struct {
	Instrument string        `json:"instrument"`
	Time       time.Time     `json:"time"`
	Tradeable  bool          `json:"tradeable"`
	Bids       []priceBucket `json:"bids"`
	Asks       []priceBucket `json:"asks"`
}

type pricingResponse struct {
	Prices []apiPrice `json:"prices"`
}

type apiError struct {
	ErrorMessage string `json:"errorMessage"`
}

// pricing asks the account pricing endpoint for names in OANDA notation.
func (c *Client) pricing(ctx context.Context, names []string) (pricingResponse, error) {
	var pr pricingResponse
	endpoint, err := url.JoinPath(c.BaseURL, "v3", "accounts", c.AccountID, "pricing")
	if err != nil {
		return pr, fmt.Errorf("oanda: base url: %w", err)
	}
	endpoint += "?" + url.Values{"instruments": {strings.Join(names, ",")}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pr, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept-Datetime-Format", "RFC3339")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return pr, fmt.Errorf("oanda: %w", err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, 1<<20)
	if resp.StatusCode != http.StatusOK {
		var ae apiError
		raw, _ := io.ReadAll(body)
		if json.Unmarshal(raw, &ae) == nil && ae.ErrorMessage != "" {
			return pr, fmt.Errorf("oanda pricing http %d: %s", resp.StatusCode, ae.ErrorMessage)
		}
		return pr, fmt.Errorf("oanda pricing http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.NewDecoder(body).Decode(&pr); err != nil {
		return pr, fmt.Errorf("oanda: decode pricing: %w", err)
	}
	return pr, nil
}

// FetchQuotes implements pricing.Source. OANDA carries no crypto, those
// instruments are never requested.
func (c *Client) FetchQuotes(ctx context.Context, ins []market.Instrument) (map[market.Instrument]market.Quote, error) {
	if c.Token == "" {
		return nil, errors.New("oanda: missing token")
	}
	if c.AccountID == "" {
		return nil, errors.New("oanda: missing account id")
	}

	names := make([]string, 0, len(ins))
	for _, in := range ins {
		if in.Family() == market.Forex {
			names = append(names, in.OANDA())
		}
	}
	out := make(map[market.Instrument]market.Quote, len(names))
	if len(names) == 0 {
		return out, nil
	}

	pr, err := c.pricing(ctx, names)
	if err != nil {
		return nil, err
	}

	for _, p := range pr.Prices {
		in, err := market.Parse(p.Instrument)
		if err != nil || len(p.Bids) == 0 || len(p.Asks) == 0 {
			continue
		}
		bid, err1 := decimal.NewFromString(p.Bids[0].Price)
		ask, err2 := decimal.NewFromString(p.Asks[0].Price)
		if err1 != nil || err2 != nil {
			continue
		}
		out[in] = market.QuoteFromBidAsk(in, bid, ask, p.Time.UTC())
	}
	return out, nil
}

package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rustyeddy/riskbook/market"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// DefaultURL is the Twelve Data REST endpoint.
const DefaultURL = "https://api.twelvedata.com"

// Client reads real-time prices from the Twelve Data /price endpoint. The
// endpoint reports no bid/ask, so quotes carry an unknown spread.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient returns a client allowing perMinute requests per minute, the
// free tier allows 8. perMinute <= 0 disables limiting.
func NewClient(apiKey string, perMinute int) *Client {
	c := &Client{
		baseURL: DefaultURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	if perMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
	return c
}

func (c *Client) WithBaseURL(u string) *Client {
	if u != "" {
		c.baseURL = strings.TrimRight(u, "/")
	}
	return c
}

func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpClient = h
	return c
}

type apiPrice struct {
	Price   string `json:"price"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (p apiPrice) failed() bool { return p.Status == "error" || p.Code >= 400 }

// FetchQuotes requests every instrument in one batched call. Symbols the API
// rejects individually are left out of the result.
func (c *Client) FetchQuotes(ctx context.Context, ins []market.Instrument) (map[market.Instrument]market.Quote, error) {
	if len(ins) == 0 {
		return map[market.Instrument]market.Quote{}, nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	bySymbol := make(map[string]market.Instrument, len(ins))
	symbols := make([]string, 0, len(ins))
	for _, in := range ins {
		s := in.TwelveData()
		bySymbol[s] = in
		symbols = append(symbols, s)
	}

	params := url.Values{}
	params.Set("symbol", strings.Join(symbols, ","))
	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s/price?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twelvedata http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	now := time.Now().UTC()
	out := make(map[market.Instrument]market.Quote, len(ins))

	// A single symbol comes back flat, several come back keyed by symbol.
	var flat apiPrice
	if err := json.Unmarshal(body, &flat); err == nil && (flat.failed() || flat.Price != "") {
		if flat.failed() {
			return nil, fmt.Errorf("twelvedata error %d: %s", flat.Code, flat.Message)
		}
		if len(ins) != 1 {
			return nil, fmt.Errorf("twelvedata: unkeyed price for %d symbols", len(ins))
		}
		p, err := decimal.NewFromString(flat.Price)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", flat.Price, err)
		}
		out[ins[0]] = market.Quote{Instrument: ins[0], Price: p, Time: now}
		return out, nil
	}

	var keyed map[string]apiPrice
	if err := json.Unmarshal(body, &keyed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	for sym, ap := range keyed {
		in, ok := bySymbol[sym]
		if !ok || ap.failed() {
			continue
		}
		p, err := decimal.NewFromString(ap.Price)
		if err != nil {
			continue
		}
		out[in] = market.Quote{Instrument: in, Price: p, Time: now}
	}
	return out, nil
}

// Package oracle implements the price oracle adapter described in spec
// §4.H: fetch a token's BTC-denominated price from an external index,
// cache it briefly, convert between satoshis and token base units, and
// validate a counterparty's paid amount against an expected amount plus
// a fee tolerance.
//
// Price fetching uses an external HTTP index behind a short TTL cache;
// concurrent cache misses for the same pair are coalesced with
// singleflight rather than each firing their own HTTP request.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ethereum/go-ethereum/common"

	"github.com/klingon-exchange/btcrelay-swap/internal/config"
	"github.com/klingon-exchange/btcrelay-swap/internal/swaperr"
)

// pairFixedOne pegs a token 1:1 with a satoshi-denominated base unit —
// used for synthetic wrapped-sats tokens where no external price feed
// exists or is needed.
const pairFixedOne = "$fixed-1"

// pairIgnore short-circuits amount validation to always-valid, for
// tokens the deployment explicitly doesn't want priced (e.g. a test
// token on a devnet).
const pairIgnore = "$ignore"

// milliSatScale is the precision factor in PriceSource's returned
// price: milli-satoshis per one whole unit of the paired token.
const milliSatScale = 1000

const ppmScale = 1_000_000

// TokenConfig binds a settlement token to the index pair used to price
// it and the token's base-unit decimals.
type TokenConfig struct {
	Pair     string
	Decimals uint8
}

// PriceSource fetches a BTC-denominated price for an index pair, in
// milli-satoshis per one whole unit of the priced token. Implementations
// hit an external index (OKX-style); tests supply a canned fake.
type PriceSource interface {
	FetchPrice(ctx context.Context, pair string) (*big.Int, error)
}

type cacheEntry struct {
	price  *big.Int
	expiry time.Time
}

// Client is the price oracle adapter: cached conversions plus the
// fee-tolerance validation spec §4.H describes.
type Client struct {
	source PriceSource
	tokens map[common.Address]TokenConfig
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
	group singleflight.Group
}

// NewClient builds an adapter around source, with the given token
// registry and cache configuration.
func NewClient(source PriceSource, tokens map[common.Address]TokenConfig, cfg config.OracleConfig) *Client {
	return &Client{
		source: source,
		tokens: tokens,
		ttl:    cfg.CacheTTL,
		cache:  make(map[string]cacheEntry),
	}
}

// priceFor returns the cached price for pair, fetching and caching it on
// a miss. Concurrent misses for the same pair share one fetch.
func (c *Client) priceFor(ctx context.Context, pair string) (*big.Int, error) {
	c.mu.Lock()
	entry, ok := c.cache[pair]
	c.mu.Unlock()
	if ok && time.Now().Before(entry.expiry) {
		return entry.price, nil
	}

	v, err, _ := c.group.Do(pair, func() (interface{}, error) {
		price, err := c.source.FetchPrice(ctx, pair)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch price for %s: %v", swaperr.ErrHTTPResponse, pair, err)
		}
		c.mu.Lock()
		c.cache[pair] = cacheEntry{price: price, expiry: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return price, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*big.Int), nil
}

// GetFromBtc converts a satoshi amount into token base units.
func (c *Client) GetFromBtc(ctx context.Context, sats uint64, token common.Address) (*big.Int, error) {
	cfg, ok := c.tokens[token]
	if !ok {
		return nil, fmt.Errorf("%w: no price config for token %s", swaperr.ErrInvalidArgument, token.Hex())
	}

	switch cfg.Pair {
	case pairIgnore:
		return nil, fmt.Errorf("%w: %s tokens skip conversion, not convertible", swaperr.ErrInvalidArgument, pairIgnore)
	case pairFixedOne:
		return new(big.Int).SetUint64(sats), nil
	}

	price, err := c.priceFor(ctx, cfg.Pair)
	if err != nil {
		return nil, err
	}

	// tokenAmount = sats * 10^decimals * 1000 / price
	amount := new(big.Int).SetUint64(sats)
	amount.Mul(amount, pow10(cfg.Decimals))
	amount.Mul(amount, big.NewInt(milliSatScale))
	amount.Div(amount, price)
	return amount, nil
}

// GetToBtc converts token base units into a satoshi amount, the inverse
// of GetFromBtc.
func (c *Client) GetToBtc(ctx context.Context, tokenAmount *big.Int, token common.Address) (uint64, error) {
	cfg, ok := c.tokens[token]
	if !ok {
		return 0, fmt.Errorf("%w: no price config for token %s", swaperr.ErrInvalidArgument, token.Hex())
	}

	switch cfg.Pair {
	case pairIgnore:
		return 0, fmt.Errorf("%w: %s tokens skip conversion, not convertible", swaperr.ErrInvalidArgument, pairIgnore)
	case pairFixedOne:
		return tokenAmount.Uint64(), nil
	}

	price, err := c.priceFor(ctx, cfg.Pair)
	if err != nil {
		return 0, err
	}

	// sats = tokenAmount * price / (10^decimals * 1000)
	sats := new(big.Int).Mul(tokenAmount, price)
	sats.Div(sats, pow10(cfg.Decimals))
	sats.Div(sats, big.NewInt(milliSatScale))
	return sats.Uint64(), nil
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// IsValidAmountSend validates a payer's paidToken amount against the
// sats it was meant to cover plus fee_ppm markup and a flat
// base_fee_sats, per spec §4.H. $ignore tokens always validate.
func (c *Client) IsValidAmountSend(ctx context.Context, sats, baseFeeSats uint64, feePpm uint64, paidToken *big.Int, token common.Address, maxAllowedFeeDiffPpm int64) (bool, error) {
	if cfg, ok := c.tokens[token]; ok && cfg.Pair == pairIgnore {
		return true, nil
	}

	totalSats := new(big.Int).SetUint64(sats)
	totalSats.Mul(totalSats, new(big.Int).SetUint64(ppmScale+feePpm))
	totalSats.Div(totalSats, big.NewInt(ppmScale))
	totalSats.Add(totalSats, new(big.Int).SetUint64(baseFeeSats))

	expected, err := c.GetFromBtc(ctx, totalSats.Uint64(), token)
	if err != nil {
		return false, err
	}
	return diffWithinTolerance(paidToken, expected, maxAllowedFeeDiffPpm)
}

// IsValidAmountReceive is the receive-side symmetric check: fee_ppm is
// subtracted rather than added, and base_fee_sats is subtracted rather
// than added, per spec §4.H.
func (c *Client) IsValidAmountReceive(ctx context.Context, sats, baseFeeSats uint64, feePpm uint64, paidToken *big.Int, token common.Address, maxAllowedFeeDiffPpm int64) (bool, error) {
	if cfg, ok := c.tokens[token]; ok && cfg.Pair == pairIgnore {
		return true, nil
	}

	totalSats := new(big.Int).SetUint64(sats)
	totalSats.Mul(totalSats, new(big.Int).SetUint64(ppmScale-feePpm))
	totalSats.Div(totalSats, big.NewInt(ppmScale))
	totalSats.Sub(totalSats, new(big.Int).SetUint64(baseFeeSats))
	if totalSats.Sign() < 0 {
		totalSats.SetInt64(0)
	}

	expected, err := c.GetFromBtc(ctx, totalSats.Uint64(), token)
	if err != nil {
		return false, err
	}
	return diffWithinTolerance(paidToken, expected, maxAllowedFeeDiffPpm)
}

// diffWithinTolerance reports whether (paid - expected) * 1e6 / expected
// is at most maxAllowedFeeDiffPpm. A negative diff (paid less than
// expected) always satisfies the bound.
func diffWithinTolerance(paid, expected *big.Int, maxAllowedFeeDiffPpm int64) (bool, error) {
	if expected.Sign() == 0 {
		return false, fmt.Errorf("%w: expected amount is zero", swaperr.ErrSwapDataVerification)
	}
	diff := new(big.Int).Sub(paid, expected)
	diff.Mul(diff, big.NewInt(ppmScale))
	diffPpm := new(big.Int).Quo(diff, expected) // truncating division matches integer ppm semantics
	return diffPpm.Cmp(big.NewInt(maxAllowedFeeDiffPpm)) <= 0, nil
}

// HTTPPriceSource is the production PriceSource: an OKX-style index
// queried over HTTP.
type HTTPPriceSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPPriceSource builds a price source against baseURL, the scheme
// and host of an OKX-compatible index; FetchPrice appends the ticker
// path.
func NewHTTPPriceSource(baseURL string) *HTTPPriceSource {
	return &HTTPPriceSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type tickerResponse struct {
	Data []struct {
		Last string `json:"last"`
	} `json:"data"`
}

// FetchPrice queries baseURL/api/v5/market/ticker?instId=<pair> and
// converts the returned decimal last-trade price into milli-satoshis
// per whole token unit.
func (s *HTTPPriceSource) FetchPrice(ctx context.Context, pair string) (*big.Int, error) {
	url := fmt.Sprintf("%s/api/v5/market/ticker?instId=%s", s.baseURL, pair)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("oracle: build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", swaperr.ErrHTTPResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", swaperr.ErrHTTPResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("oracle: read response: %w", err)
	}

	var tr tickerResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("oracle: decode response: %w", err)
	}
	if len(tr.Data) == 0 {
		return nil, fmt.Errorf("%w: empty ticker data for %s", swaperr.ErrHTTPResponse, pair)
	}

	price, ok := new(big.Rat).SetString(tr.Data[0].Last)
	if !ok {
		return nil, fmt.Errorf("%w: malformed price %q", swaperr.ErrHTTPResponse, tr.Data[0].Last)
	}
	price.Mul(price, new(big.Rat).SetInt(big.NewInt(milliSatScale)))

	// price is BTC-per-token; convert to milli-sats-per-token by scaling
	// through satoshi precision (1 BTC = 1e8 sats).
	price.Mul(price, new(big.Rat).SetInt(pow10(8)))

	num := new(big.Int).Quo(price.Num(), price.Denom())
	return num, nil
}

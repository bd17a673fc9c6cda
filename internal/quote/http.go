package quote

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ggonzalez94/defi-router/internal/httpx"
	"github.com/ggonzalez94/defi-router/internal/model"
)

// HTTP prices requests against an aggregator quote service. 404 and 422
// responses surface as unavailable quotes; everything else propagates as a
// typed error.
type HTTP struct {
	http    *httpx.Client
	baseURL string
}

func NewHTTP(httpClient *httpx.Client, baseURL string) *HTTP {
	return &HTTP{http: httpClient, baseURL: baseURL}
}

type swapQuoteResponse struct {
	Venue           string  `json:"venue"`
	AmountOut       float64 `json:"amount_out"`
	FeeUSD          float64 `json:"fee_usd"`
	GasUSD          float64 `json:"gas_usd"`
	SlippagePercent float64 `json:"slippage_pct"`
	LiquidityUSD    float64 `json:"liquidity_usd"`
	DurationSeconds int64   `json:"duration_s"`
}

type bridgeQuoteResponse struct {
	Venue           string  `json:"venue"`
	AmountOut       float64 `json:"amount_out"`
	FeeUSD          float64 `json:"fee_usd"`
	GasUSD          float64 `json:"gas_usd"`
	DurationSeconds int64   `json:"duration_s"`
}

func (c *HTTP) QuoteSwap(ctx context.Context, req SwapRequest) (model.Quote, error) {
	query := url.Values{}
	query.Set("domain", req.Domain.String())
	query.Set("venue", req.Venue)
	query.Set("from", req.FromToken.String())
	query.Set("to", req.ToToken.String())
	query.Set("amount", strconv.FormatFloat(req.AmountIn, 'f', -1, 64))

	var resp swapQuoteResponse
	if _, err := c.http.GetJSON(ctx, fmt.Sprintf("%s/v1/quote/swap?%s", c.baseURL, query.Encode()), &resp); err != nil {
		return model.Quote{}, err
	}
	if resp.AmountOut <= 0 {
		return model.Quote{}, Unavailable(fmt.Sprintf("venue %q returned empty swap quote", req.Venue))
	}
	return model.Quote{
		Venue:           resp.Venue,
		AmountOut:       resp.AmountOut,
		FeeUSD:          resp.FeeUSD,
		GasUSD:          resp.GasUSD,
		SlippagePercent: resp.SlippagePercent,
		LiquidityUSD:    resp.LiquidityUSD,
		DurationSeconds: resp.DurationSeconds,
	}, nil
}

func (c *HTTP) QuoteBridge(ctx context.Context, req BridgeRequest) (model.Quote, error) {
	query := url.Values{}
	query.Set("from_domain", req.FromDomain.String())
	query.Set("to_domain", req.ToDomain.String())
	query.Set("venue", req.Venue)
	query.Set("asset", req.Asset.String())
	query.Set("amount", strconv.FormatFloat(req.AmountIn, 'f', -1, 64))

	var resp bridgeQuoteResponse
	if _, err := c.http.GetJSON(ctx, fmt.Sprintf("%s/v1/quote/bridge?%s", c.baseURL, query.Encode()), &resp); err != nil {
		return model.Quote{}, err
	}
	if resp.AmountOut <= 0 {
		return model.Quote{}, Unavailable(fmt.Sprintf("bridge %q returned empty quote", req.Venue))
	}
	return model.Quote{
		Venue:           resp.Venue,
		AmountOut:       resp.AmountOut,
		FeeUSD:          resp.FeeUSD,
		GasUSD:          resp.GasUSD,
		DurationSeconds: resp.DurationSeconds,
	}, nil
}

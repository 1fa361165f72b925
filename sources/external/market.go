package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"coinsage/sources/tracing"
)

type CoinMarketEntry struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	CurrentPrice      float64 `json:"current_price"`
	MarketCap         float64 `json:"market_cap"`
	PriceChangePct24h float64 `json:"price_change_percentage_24h"`
}

type CoinListEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type MarketQuery struct {
	VsCurrency string
	Order      string
	PerPage    int
	Page       int
	IDs        []string
}

type MarketClient struct {
	client *http.Client
	config *ProvidersConfig
}

func NewMarketClient(client *http.Client, config *ProvidersConfig) *MarketClient {
	return &MarketClient{client: client, config: config}
}

// GetMarketSnapshot fetches one page of market data ordered by market cap.
func (x *MarketClient) GetMarketSnapshot(ctx context.Context, log *tracing.Logger, query MarketQuery) ([]CoinMarketEntry, error) {
	defer tracing.ProfilePoint(log, "Market snapshot fetched", "external.market.snapshot")()

	params := url.Values{}
	if query.VsCurrency == "" {
		query.VsCurrency = "usd"
	}
	params.Set("vs_currency", query.VsCurrency)
	if query.Order != "" {
		params.Set("order", query.Order)
	}
	if query.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(query.PerPage))
	}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}
	if len(query.IDs) > 0 {
		params.Set("ids", strings.Join(query.IDs, ","))
	}
	params.Set("sparkline", "false")

	var entries []CoinMarketEntry
	if err := x.get(ctx, log, "/coins/markets", params, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

func (x *MarketClient) GetCoinsList(ctx context.Context, log *tracing.Logger) ([]CoinListEntry, error) {
	defer tracing.ProfilePoint(log, "Coins list fetched", "external.market.coins.list")()

	var entries []CoinListEntry
	if err := x.get(ctx, log, "/coins/list", url.Values{}, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

func (x *MarketClient) GetCoinPrices(ctx context.Context, log *tracing.Logger, ids []string, vsCurrencies []string) (map[string]map[string]float64, error) {
	defer tracing.ProfilePoint(log, "Coin prices fetched", "external.market.prices")()

	if len(ids) == 0 {
		return nil, fmt.Errorf("coin ids are required")
	}
	if len(vsCurrencies) == 0 {
		vsCurrencies = []string{"usd"}
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", strings.Join(vsCurrencies, ","))

	prices := map[string]map[string]float64{}
	if err := x.get(ctx, log, "/simple/price", params, &prices); err != nil {
		return nil, err
	}

	return prices, nil
}

func (x *MarketClient) get(ctx context.Context, log *tracing.Logger, path string, params url.Values, out any) error {
	endpoint := x.config.CoinGeckoBaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if x.config.CoinGeckoAPIKey != "" {
		req.Header.Set("x-cg-demo-api-key", x.config.CoinGeckoAPIKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		log.E("CoinGecko request failed", tracing.InnerError, err, tracing.OutsiderKind, "coingecko")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("coingecko: unexpected status %d", resp.StatusCode)
		log.E("CoinGecko request rejected", tracing.InnerError, err, tracing.OutsiderKind, "coingecko")
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return json.Unmarshal(body, out)
}

package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"coinsage/sources/tracing"
)

// Allowed CryptoPanic query enumerations. These are spliced verbatim into the
// advisor prompts so the model only ever sees currently valid values.
var (
	NewsFilters = []string{"rising", "hot", "bullish", "bearish", "important", "saved", "lol"}
	NewsKinds   = []string{"news", "media", "all"}
)

type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Kind        string    `json:"kind"`
	PublishedAt time.Time `json:"published_at"`
	Currencies  []string  `json:"currencies"`
}

type NewsFilterParams struct {
	Filter     string   `json:"filter"`
	Currencies []string `json:"currencies"`
	Kind       string   `json:"kind"`
}

type NewsQuery struct {
	Filter     string
	Kind       string
	Currencies []string
	Page       int
}

type NewsClient struct {
	client *http.Client
	config *ProvidersConfig
}

func NewNewsClient(client *http.Client, config *ProvidersConfig) *NewsClient {
	return &NewsClient{client: client, config: config}
}

// GetHeadlines fetches news from CryptoPanic, falling back to the bundled
// static snapshot when the provider is unconfigured or unreachable.
func (x *NewsClient) GetHeadlines(ctx context.Context, log *tracing.Logger, query NewsQuery) ([]NewsItem, error) {
	defer tracing.ProfilePoint(log, "Headlines fetched", "external.news.headlines")()

	if x.config.CryptoPanicToken != "" {
		items, err := x.fetchLive(ctx, log, query)
		if err == nil && len(items) > 0 {
			return items, nil
		}
		if err != nil {
			log.E("CryptoPanic fetch failed, trying static snapshot", tracing.InnerError, err, tracing.OutsiderKind, "cryptopanic")
		}
	}

	return x.readStatic(log)
}

func (x *NewsClient) fetchLive(ctx context.Context, log *tracing.Logger, query NewsQuery) ([]NewsItem, error) {
	params := url.Values{}
	params.Set("auth_token", x.config.CryptoPanicToken)
	params.Set("public", "true")
	if query.Filter != "" {
		params.Set("filter", query.Filter)
	}
	if query.Kind != "" && query.Kind != "all" {
		params.Set("kind", query.Kind)
	}
	if len(query.Currencies) > 0 {
		params.Set("currencies", strings.Join(query.Currencies, ","))
	}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}

	endpoint := x.config.CryptoPanicBaseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cryptopanic: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return parseNewsPayload(body)
}

func (x *NewsClient) readStatic(log *tracing.Logger) ([]NewsItem, error) {
	content, err := os.ReadFile(x.config.StaticNewsPath)
	if err != nil {
		log.E("Failed to read static news snapshot", tracing.InnerError, err, "path", x.config.StaticNewsPath)
		return []NewsItem{}, nil
	}

	items, err := parseNewsPayload(content)
	if err != nil {
		log.E("Failed to parse static news snapshot", tracing.InnerError, err, "path", x.config.StaticNewsPath)
		return []NewsItem{}, nil
	}

	return items, nil
}

func parseNewsPayload(body []byte) ([]NewsItem, error) {
	var payload struct {
		Results []struct {
			ID          json.Number `json:"id"`
			Title       string      `json:"title"`
			Kind        string      `json:"kind"`
			PublishedAt string      `json:"published_at"`
			Currencies  []struct {
				Code string `json:"code"`
			} `json:"currencies"`
		} `json:"results"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	items := make([]NewsItem, 0, len(payload.Results))
	for _, result := range payload.Results {
		if result.Title == "" {
			continue
		}

		item := NewsItem{
			ID:    result.ID.String(),
			Title: result.Title,
			Kind:  result.Kind,
		}
		if ts, err := time.Parse(time.RFC3339, result.PublishedAt); err == nil {
			item.PublishedAt = ts
		}
		for _, currency := range result.Currencies {
			if currency.Code != "" {
				item.Currencies = append(item.Currencies, currency.Code)
			}
		}

		items = append(items, item)
	}

	return items, nil
}

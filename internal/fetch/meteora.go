package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Clish254/sol-dex-pools/internal/config"
	"github.com/Clish254/sol-dex-pools/internal/types"
)

// MeteoraClient queries the Meteora AMM v2 pool search API
type MeteoraClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
}

// NewMeteoraClient creates a new Meteora AMM API client
func NewMeteoraClient(cfg config.Config) *MeteoraClient {
	src := cfg.Source(types.SourceMeteora)
	return &MeteoraClient{
		baseURL:    src.BaseURL,
		httpClient: newHTTPClient(),
		apiKey:     src.APIKey,
	}
}

// MeteoraResponse is the paged search envelope
type MeteoraResponse struct {
	Data       []MeteoraPool `json:"data"`
	Page       int           `json:"page"`
	TotalCount int           `json:"total_count"`
}

// MeteoraPool is one pool entry as Meteora reports it. TVL, fee and the
// reserve amounts are string-typed; total_fee_pct is already on the
// percent scale. Price is not reported and has to be derived from the
// raw reserve amounts.
type MeteoraPool struct {
	PoolAddress      string   `json:"pool_address"`
	PoolName         string   `json:"pool_name"`
	PoolTokenMints   []string `json:"pool_token_mints"`
	PoolTokenAmounts []string `json:"pool_token_amounts"`
	PoolTVL          string   `json:"pool_tvl"`
	TotalFeePct      string   `json:"total_fee_pct"`
	TradingVolume    float64  `json:"trading_volume"`
	PoolType         string   `json:"pool_type"`
}

// Fetch retrieves the pools Meteora knows for the mint pair. The API
// expects the pair joined in lexicographic order.
func (c *MeteoraClient) Fetch(ctx context.Context, tokenA, tokenB string, hints Hints) ([]MeteoraPool, error) {
	hints = hints.withDefaults(0, 10)

	url := fmt.Sprintf("%s/pools/search?page=%d&size=%d&include_pool_token_pairs=%s",
		c.baseURL, hints.Page, hints.PageSize, sortedPair(tokenA, tokenB))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, schemaErr(types.SourceMeteora, err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logrus.Debugf("Fetching pools from Meteora: %s", c.baseURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportErr(types.SourceMeteora, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, upstreamErr(types.SourceMeteora,
			fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body)))
	}

	var response MeteoraResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, schemaErr(types.SourceMeteora, err)
	}

	logrus.Debugf("Received %d pools from Meteora", len(response.Data))
	return response.Data, nil
}

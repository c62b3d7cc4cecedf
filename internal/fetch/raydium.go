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

// RaydiumClient queries the Raydium v3 pool search API
type RaydiumClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
}

// NewRaydiumClient creates a new Raydium API client
func NewRaydiumClient(cfg config.Config) *RaydiumClient {
	src := cfg.Source(types.SourceRaydium)
	return &RaydiumClient{
		baseURL:    src.BaseURL,
		httpClient: newHTTPClient(),
		apiKey:     src.APIKey,
	}
}

// RaydiumResponse mirrors the api-v3 pool search envelope
type RaydiumResponse struct {
	ID      string          `json:"id"`
	Success bool            `json:"success"`
	Data    RaydiumPoolData `json:"data"`
}

// RaydiumPoolData is the paged inner payload
type RaydiumPoolData struct {
	Count       int           `json:"count"`
	Pools       []RaydiumPool `json:"data"`
	HasNextPage bool          `json:"hasNextPage"`
}

// RaydiumPool is one pool entry as Raydium reports it. Numeric fields are
// native JSON numbers; feeRate is a fraction (0.003 means 0.30%).
type RaydiumPool struct {
	Type    string        `json:"type"`
	ID      string        `json:"id"`
	MintA   RaydiumToken  `json:"mintA"`
	MintB   RaydiumToken  `json:"mintB"`
	Price   float64       `json:"price"`
	FeeRate float64       `json:"feeRate"`
	TVL     float64       `json:"tvl"`
	Day     RaydiumPeriod `json:"day"`
}

// RaydiumToken describes one side of a pool
type RaydiumToken struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

// RaydiumPeriod holds the per-period trading stats
type RaydiumPeriod struct {
	Volume float64 `json:"volume"`
}

// Fetch retrieves the pools Raydium knows for the mint pair. A single
// failure is terminal for this invocation; no retries are attempted.
func (c *RaydiumClient) Fetch(ctx context.Context, tokenA, tokenB string, hints Hints) ([]RaydiumPool, error) {
	hints = hints.withDefaults(1, 10)

	url := fmt.Sprintf(
		"%s/pools/info/mint?mint1=%s&mint2=%s&poolType=all&poolSortField=default&sortType=desc&pageSize=%d&page=%d",
		c.baseURL, tokenA, tokenB, hints.PageSize, hints.Page,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, schemaErr(types.SourceRaydium, err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logrus.Debugf("Fetching pools from Raydium: %s", c.baseURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportErr(types.SourceRaydium, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, upstreamErr(types.SourceRaydium,
			fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body)))
	}

	var response RaydiumResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, schemaErr(types.SourceRaydium, err)
	}
	if !response.Success {
		return nil, upstreamErr(types.SourceRaydium,
			fmt.Errorf("request %s reported success=false", response.ID))
	}

	logrus.Debugf("Received %d pools from Raydium", len(response.Data.Pools))
	return response.Data.Pools, nil
}

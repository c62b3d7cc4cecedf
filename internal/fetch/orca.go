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

// OrcaClient queries the Orca v2 REST API. Unlike the on-chain Whirlpool
// source this one reports TVL and volume directly, at the cost of
// string-typed numerics throughout.
type OrcaClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
}

// NewOrcaClient creates a new Orca API client
func NewOrcaClient(cfg config.Config) *OrcaClient {
	src := cfg.Source(types.SourceOrca)
	return &OrcaClient{
		baseURL:    src.BaseURL,
		httpClient: newHTTPClient(),
		apiKey:     src.APIKey,
	}
}

// OrcaResponse is the API envelope
type OrcaResponse struct {
	Data []OrcaPool `json:"data"`
}

// OrcaPool is one pool entry as the Orca API reports it. Price, TVL and
// volume arrive as strings; feeRate is an integer in hundredths of a
// basis point (3000 means 0.30%).
type OrcaPool struct {
	Address    string    `json:"address"`
	FeeRate    int       `json:"feeRate"`
	Price      string    `json:"price"`
	TVLUsdc    string    `json:"tvlUsdc"`
	TokenMintA string    `json:"tokenMintA"`
	TokenMintB string    `json:"tokenMintB"`
	TokenA     OrcaToken `json:"tokenA"`
	TokenB     OrcaToken `json:"tokenB"`
	Stats      OrcaStats `json:"stats"`
}

// OrcaToken describes one side of a pool
type OrcaToken struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

// OrcaStats holds the per-period trading stats
type OrcaStats struct {
	Day OrcaStatsPeriod `json:"24h"`
}

// OrcaStatsPeriod carries optional string-typed period numbers
type OrcaStatsPeriod struct {
	Volume *string `json:"volume"`
	Fees   *string `json:"fees"`
}

// Fetch retrieves the pools holding both mints from the Orca API.
func (c *OrcaClient) Fetch(ctx context.Context, tokenA, tokenB string, hints Hints) ([]OrcaPool, error) {
	hints = hints.withDefaults(1, 50)

	url := fmt.Sprintf("%s/v2/solana/pools?tokensBothOf=%s,%s&limit=%d",
		c.baseURL, tokenA, tokenB, hints.PageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, schemaErr(types.SourceOrca, err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logrus.Debugf("Fetching pools from Orca: %s", c.baseURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportErr(types.SourceOrca, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, upstreamErr(types.SourceOrca,
			fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body)))
	}

	var response OrcaResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, schemaErr(types.SourceOrca, err)
	}

	logrus.Debugf("Received %d pools from Orca", len(response.Data))
	return response.Data, nil
}

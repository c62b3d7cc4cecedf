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

// MeteoraDLMMClient queries the Meteora DLMM pair API
type MeteoraDLMMClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
}

// NewMeteoraDLMMClient creates a new Meteora DLMM API client
func NewMeteoraDLMMClient(cfg config.Config) *MeteoraDLMMClient {
	src := cfg.Source(types.SourceMeteoraDLMM)
	return &MeteoraDLMMClient{
		baseURL:    src.BaseURL,
		httpClient: newHTTPClient(),
		apiKey:     src.APIKey,
	}
}

// DLMMResponse groups pairs by pool name
type DLMMResponse struct {
	Groups []DLMMGroup `json:"groups"`
	Total  int         `json:"total"`
}

// DLMMGroup is one named group of pairs
type DLMMGroup struct {
	Name  string     `json:"name"`
	Pairs []DLMMPair `json:"pairs"`
}

// DLMMPair is one DLMM pair entry. Liquidity arrives as a string;
// base_fee_percentage is already on the percent scale; current_price is
// denominated against the other side of the pool. Hidden and blacklisted
// pairs are still present in the response and must be filtered out.
type DLMMPair struct {
	Address           string  `json:"address"`
	Name              string  `json:"name"`
	MintX             string  `json:"mint_x"`
	MintY             string  `json:"mint_y"`
	BinStep           int     `json:"bin_step"`
	BaseFeePercentage string  `json:"base_fee_percentage"`
	Liquidity         string  `json:"liquidity"`
	TradeVolume24h    float64 `json:"trade_volume_24h"`
	CurrentPrice      float64 `json:"current_price"`
	Hide              bool    `json:"hide"`
	IsBlacklisted     bool    `json:"is_blacklisted"`
}

// Fetch retrieves the DLMM pairs for the mint pair, flattened across
// groups. The API expects the pair joined in lexicographic order.
func (c *MeteoraDLMMClient) Fetch(ctx context.Context, tokenA, tokenB string, hints Hints) ([]DLMMPair, error) {
	hints = hints.withDefaults(0, 10)

	url := fmt.Sprintf("%s/pair/all_by_groups?page=%d&limit=%d&include_pool_token_pairs=%s",
		c.baseURL, hints.Page, hints.PageSize, sortedPair(tokenA, tokenB))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, schemaErr(types.SourceMeteoraDLMM, err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logrus.Debugf("Fetching pairs from Meteora DLMM: %s", c.baseURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportErr(types.SourceMeteoraDLMM, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, upstreamErr(types.SourceMeteoraDLMM,
			fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body)))
	}

	var response DLMMResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, schemaErr(types.SourceMeteoraDLMM, err)
	}

	var pairs []DLMMPair
	for _, group := range response.Groups {
		pairs = append(pairs, group.Pairs...)
	}

	logrus.Debugf("Received %d pairs from Meteora DLMM", len(pairs))
	return pairs, nil
}

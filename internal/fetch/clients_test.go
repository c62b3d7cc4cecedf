package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clish254/sol-dex-pools/internal/config"
	"github.com/Clish254/sol-dex-pools/internal/types"
)

func TestRaydiumFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mintA", r.URL.Query().Get("mint1"))
		assert.Equal(t, "mintB", r.URL.Query().Get("mint2"))
		assert.Equal(t, "10", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "req-1",
			"success": true,
			"data": {
				"count": 1,
				"hasNextPage": false,
				"data": [{
					"type": "Standard",
					"id": "pool-1",
					"mintA": {"address": "mintA", "symbol": "JUP", "decimals": 6},
					"mintB": {"address": "mintB", "symbol": "SOL", "decimals": 9},
					"price": 0.05,
					"feeRate": 0.003,
					"tvl": 2500000,
					"day": {"volume": 800000}
				}]
			}
		}`))
	}))
	defer srv.Close()

	client := NewRaydiumClient(config.Config{RaydiumURL: srv.URL})
	pools, err := client.Fetch(context.Background(), "mintA", "mintB", Hints{})
	require.NoError(t, err)
	require.Len(t, pools, 1)

	assert.Equal(t, "pool-1", pools[0].ID)
	assert.Equal(t, 0.003, pools[0].FeeRate)
	assert.Equal(t, 800000.0, pools[0].Day.Volume)
}

func TestRaydiumErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind Kind
	}{
		{
			name: "upstream status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "down for maintenance", http.StatusBadGateway)
			},
			wantKind: KindUpstream,
		},
		{
			name: "success false",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"id": "req-1", "success": false, "data": {}}`))
			},
			wantKind: KindUpstream,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{{{not json`))
			},
			wantKind: KindSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewRaydiumClient(config.Config{RaydiumURL: srv.URL})
			_, err := client.Fetch(context.Background(), "a", "b", Hints{})
			require.Error(t, err)

			var fetchErr *Error
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, tt.wantKind, fetchErr.Kind)
			assert.Equal(t, types.SourceRaydium, fetchErr.Source)
		})
	}
}

func TestFetchTimeoutClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	client := NewOrcaClient(config.Config{OrcaURL: srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Fetch(ctx, "a", "b", Hints{})
	require.Error(t, err)

	var fetchErr *Error
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, KindTimeout, fetchErr.Kind)
}

func TestOrcaFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mintA,mintB", r.URL.Query().Get("tokensBothOf"))
		w.Write([]byte(`{
			"data": [{
				"address": "orca-1",
				"feeRate": 3000,
				"price": "0.05",
				"tvlUsdc": "3000000",
				"tokenMintA": "mintA",
				"tokenMintB": "mintB",
				"tokenA": {"symbol": "JUP"},
				"tokenB": {"symbol": "SOL"},
				"stats": {"24h": {"volume": "1250000.5"}}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewOrcaClient(config.Config{OrcaURL: srv.URL})
	pools, err := client.Fetch(context.Background(), "mintA", "mintB", Hints{})
	require.NoError(t, err)
	require.Len(t, pools, 1)

	assert.Equal(t, "orca-1", pools[0].Address)
	assert.Equal(t, 3000, pools[0].FeeRate)
	require.NotNil(t, pools[0].Stats.Day.Volume)
	assert.Equal(t, "1250000.5", *pools[0].Stats.Day.Volume)
}

func TestMeteoraDLMMFetchFlattensGroups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// pairs arrive lexicographically sorted regardless of argument order
		assert.Equal(t, "mintA-mintB", r.URL.Query().Get("include_pool_token_pairs"))
		w.Write([]byte(`{
			"total": 3,
			"groups": [
				{"name": "JUP-SOL", "pairs": [
					{"address": "pair-1", "name": "JUP-SOL", "mint_x": "mintA", "mint_y": "mintB", "bin_step": 10, "base_fee_percentage": "0.2", "liquidity": "100000", "trade_volume_24h": 5000, "current_price": 0.05},
					{"address": "pair-2", "name": "JUP-SOL", "mint_x": "mintA", "mint_y": "mintB", "bin_step": 25, "base_fee_percentage": "0.6", "liquidity": "20000", "trade_volume_24h": 900, "current_price": 0.05}
				]},
				{"name": "other", "pairs": [
					{"address": "pair-3", "name": "JUP-SOL", "mint_x": "mintA", "mint_y": "mintB", "bin_step": 100, "base_fee_percentage": "1.0", "liquidity": "500", "trade_volume_24h": 10, "current_price": 0.05}
				]}
			]
		}`))
	}))
	defer srv.Close()

	client := NewMeteoraDLMMClient(config.Config{MeteoraDLMMURL: srv.URL})
	pairs, err := client.Fetch(context.Background(), "mintB", "mintA", Hints{})
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, "pair-3", pairs[2].Address)
}

func TestMeteoraFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"page": 0,
			"total_count": 1,
			"data": [{
				"pool_address": "met-1",
				"pool_name": "JUP-SOL",
				"pool_token_mints": ["mintA", "mintB"],
				"pool_token_amounts": ["1000000", "10000"],
				"pool_tvl": "500000",
				"total_fee_pct": "0.25",
				"trading_volume": 42000,
				"pool_type": "dynamic"
			}]
		}`))
	}))
	defer srv.Close()

	client := NewMeteoraClient(config.Config{MeteoraURL: srv.URL})
	pools, err := client.Fetch(context.Background(), "mintA", "mintB", Hints{})
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, "met-1", pools[0].PoolAddress)
	assert.Equal(t, "0.25", pools[0].TotalFeePct)
}

func TestSortedPair(t *testing.T) {
	assert.Equal(t, "a-b", sortedPair("a", "b"))
	assert.Equal(t, "a-b", sortedPair("b", "a"))
}

package fetch

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clish254/sol-dex-pools/internal/config"
	"github.com/Clish254/sol-dex-pools/internal/types"
)

const (
	solMint = "So11111111111111111111111111111111111111112"
	jupMint = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
)

// buildWhirlpoolData assembles a raw account payload with the given fields
// at their on-chain offsets.
func buildWhirlpoolData(t *testing.T, tickSpacing, feeRate uint16, liquidity uint64, sqrtPriceHi, sqrtPriceLo uint64, mintA, mintB string) []byte {
	t.Helper()

	data := make([]byte, whirlpoolAccountLen)
	binary.LittleEndian.PutUint16(data[offsetTickSpacing:], tickSpacing)
	binary.LittleEndian.PutUint16(data[offsetFeeRate:], feeRate)
	binary.LittleEndian.PutUint64(data[offsetLiquidity:], liquidity)
	binary.LittleEndian.PutUint64(data[offsetSqrtPrice:], sqrtPriceLo)
	binary.LittleEndian.PutUint64(data[offsetSqrtPrice+8:], sqrtPriceHi)

	for offset, mint := range map[int]string{offsetTokenMintA: mintA, offsetTokenMintB: mintB} {
		raw, err := base58.Decode(mint)
		require.NoError(t, err)
		require.Len(t, raw, 32)
		copy(data[offset:], raw)
	}
	return data
}

func TestParseWhirlpoolAccount(t *testing.T) {
	// sqrtPrice = 1.5 * 2^64 in Q64.64 means a spot price of 2.25
	data := buildWhirlpoolData(t, 64, 3000, 5_000_000, 1, 1<<63, jupMint, solMint)

	acc := keyedAccount{Pubkey: "whirl-1"}
	acc.Account.Data = []string{base64.StdEncoding.EncodeToString(data), "base64"}

	pool, err := parseWhirlpoolAccount(acc)
	require.NoError(t, err)

	assert.Equal(t, "whirl-1", pool.Address)
	assert.Equal(t, uint16(64), pool.TickSpacing)
	assert.Equal(t, uint16(3000), pool.FeeRate)
	assert.Equal(t, 5_000_000.0, pool.Liquidity)
	assert.InDelta(t, 2.25, pool.Price, 1e-9)
	assert.Equal(t, jupMint, pool.TokenMintA)
	assert.Equal(t, solMint, pool.TokenMintB)
}

func TestParseWhirlpoolAccountRejectsBadData(t *testing.T) {
	acc := keyedAccount{Pubkey: "w"}

	// empty data
	_, err := parseWhirlpoolAccount(acc)
	assert.Error(t, err)

	// wrong size
	acc.Account.Data = []string{base64.StdEncoding.EncodeToString(make([]byte, 100)), "base64"}
	_, err = parseWhirlpoolAccount(acc)
	assert.Error(t, err)

	// not base64
	acc.Account.Data = []string{"!!!not-base64!!!", "base64"}
	_, err = parseWhirlpoolAccount(acc)
	assert.Error(t, err)
}

func TestWhirlpoolFetchDedupes(t *testing.T) {
	data := buildWhirlpoolData(t, 64, 3000, 1000, 1, 0, jupMint, solMint)
	encoded := base64.StdEncoding.EncodeToString(data)

	// The same account comes back for both mint orderings
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getProgramAccounts", req.Method)

		fmt.Fprintf(w, `{"jsonrpc": "2.0", "id": %d, "result": [
			{"pubkey": "whirl-1", "account": {"data": ["%s", "base64"], "owner": "%s"}}
		]}`, req.ID, encoded, whirlpoolProgramID)
	}))
	defer srv.Close()

	client := NewWhirlpoolClient(config.Config{RPCURL: srv.URL})
	pools, err := client.Fetch(context.Background(), jupMint, solMint, Hints{})
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, "whirl-1", pools[0].Address)
}

func TestWhirlpoolFetchRejectsInvalidMint(t *testing.T) {
	client := NewWhirlpoolClient(config.Config{RPCURL: "http://localhost:0"})

	_, err := client.Fetch(context.Background(), "not-a-mint", solMint, Hints{})
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, KindSchema, fetchErr.Kind)
	assert.Equal(t, types.SourceWhirlpool, fetchErr.Source)
}

func TestWhirlpoolFetchClassifiesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc": "2.0", "id": 1, "error": {"code": -32602, "message": "invalid params"}}`))
	}))
	defer srv.Close()

	client := NewWhirlpoolClient(config.Config{RPCURL: srv.URL})
	_, err := client.Fetch(context.Background(), jupMint, solMint, Hints{})
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, KindUpstream, fetchErr.Kind)
}

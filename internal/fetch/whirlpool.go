package fetch

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/Clish254/sol-dex-pools/internal/config"
	"github.com/Clish254/sol-dex-pools/internal/types"
)

// Orca Whirlpool program account layout
const (
	whirlpoolProgramID  = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
	whirlpoolAccountLen = 653

	offsetTickSpacing = 41  // u16
	offsetFeeRate     = 45  // u16, hundredths of a basis point
	offsetLiquidity   = 49  // u128
	offsetSqrtPrice   = 65  // u128, Q64.64
	offsetTokenMintA  = 101 // pubkey, 32 bytes
	offsetTokenMintB  = 181 // pubkey, 32 bytes
)

// WhirlpoolClient reads Whirlpool pool accounts straight from a Solana RPC
// node, bypassing the Orca REST API.
type WhirlpoolClient struct {
	rpc *rpcClient
}

// NewWhirlpoolClient creates a new on-chain Whirlpool client
func NewWhirlpoolClient(cfg config.Config) *WhirlpoolClient {
	return &WhirlpoolClient{
		rpc: newRPCClient(cfg.Source(types.SourceWhirlpool).RPCEndpoint, newHTTPClient()),
	}
}

// WhirlpoolAccount is one decoded Whirlpool program account.
type WhirlpoolAccount struct {
	Address     string
	TickSpacing uint16
	// FeeRate is the raw on-chain value, hundredths of a basis point
	FeeRate   uint16
	Liquidity float64
	// Price is token B per token A, derived from the account's sqrt price
	Price      float64
	TokenMintA string
	TokenMintB string
}

// Fetch queries the RPC node for Whirlpool accounts holding the given pair.
// The program stores mints in a fixed order, so both orderings are queried
// and the results merged. Pagination hints do not apply to on-chain reads.
func (c *WhirlpoolClient) Fetch(ctx context.Context, tokenA, tokenB string, _ Hints) ([]WhirlpoolAccount, error) {
	for _, mint := range []string{tokenA, tokenB} {
		raw, err := base58.Decode(mint)
		if err != nil || len(raw) != 32 {
			return nil, schemaErr(types.SourceWhirlpool, fmt.Errorf("invalid mint address %q", mint))
		}
	}

	seen := make(map[string]bool)
	var pools []WhirlpoolAccount

	for _, pair := range [][2]string{{tokenA, tokenB}, {tokenB, tokenA}} {
		accounts, err := c.rpc.getProgramAccounts(ctx, whirlpoolProgramID, pairFilters(pair[0], pair[1]))
		if err != nil {
			return nil, classifyRPCErr(err)
		}
		for _, acc := range accounts {
			if seen[acc.Pubkey] {
				continue
			}
			seen[acc.Pubkey] = true

			pool, err := parseWhirlpoolAccount(acc)
			if err != nil {
				logrus.Debugf("Skipping whirlpool account %s: %v", acc.Pubkey, err)
				continue
			}
			pools = append(pools, pool)
		}
	}

	logrus.Debugf("Fetched %d whirlpool accounts for pair %s", len(pools), sortedPair(tokenA, tokenB))
	return pools, nil
}

// pairFilters builds getProgramAccounts filters matching Whirlpool accounts
// with the given mints at the account's fixed A/B offsets.
func pairFilters(mintA, mintB string) []interface{} {
	return []interface{}{
		map[string]interface{}{"dataSize": whirlpoolAccountLen},
		map[string]interface{}{
			"memcmp": map[string]interface{}{
				"offset": offsetTokenMintA,
				"bytes":  mintA,
			},
		},
		map[string]interface{}{
			"memcmp": map[string]interface{}{
				"offset": offsetTokenMintB,
				"bytes":  mintB,
			},
		},
	}
}

func classifyRPCErr(err error) *Error {
	var re *rpcError
	if errors.As(err, &re) {
		return upstreamErr(types.SourceWhirlpool, err)
	}
	return transportErr(types.SourceWhirlpool, err)
}

// parseWhirlpoolAccount decodes the base64 account payload into a
// WhirlpoolAccount.
func parseWhirlpoolAccount(acc keyedAccount) (WhirlpoolAccount, error) {
	if len(acc.Account.Data) == 0 {
		return WhirlpoolAccount{}, fmt.Errorf("empty account data")
	}
	data, err := base64.StdEncoding.DecodeString(acc.Account.Data[0])
	if err != nil {
		return WhirlpoolAccount{}, fmt.Errorf("decode account data: %w", err)
	}
	if len(data) != whirlpoolAccountLen {
		return WhirlpoolAccount{}, fmt.Errorf("unexpected account size %d", len(data))
	}

	sqrtPrice := readUint128(data, offsetSqrtPrice)
	// sqrtPrice is Q64.64; the spot price is its square after shifting
	// out the fractional bits
	ratio := sqrtPrice / math.Exp2(64)

	return WhirlpoolAccount{
		Address:     acc.Pubkey,
		TickSpacing: binary.LittleEndian.Uint16(data[offsetTickSpacing:]),
		FeeRate:     binary.LittleEndian.Uint16(data[offsetFeeRate:]),
		Liquidity:   readUint128(data, offsetLiquidity),
		Price:       ratio * ratio,
		TokenMintA:  base58.Encode(data[offsetTokenMintA : offsetTokenMintA+32]),
		TokenMintB:  base58.Encode(data[offsetTokenMintB : offsetTokenMintB+32]),
	}, nil
}

// readUint128 reads a little-endian u128 as a float64. Precision above
// 2^53 is lost, which is acceptable for scoring.
func readUint128(data []byte, offset int) float64 {
	lo := binary.LittleEndian.Uint64(data[offset:])
	hi := binary.LittleEndian.Uint64(data[offset+8:])
	return float64(hi)*math.Exp2(64) + float64(lo)
}

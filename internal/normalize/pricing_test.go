package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToUSD(t *testing.T) {
	p := Pricing{NativePriceUSD: 161.0}

	tests := []struct {
		name     string
		price    float64
		mintA    string
		mintB    string
		expected float64
	}{
		{name: "native on second side", price: 0.05, mintA: jupMint, mintB: solMint, expected: 8.05},
		{name: "native on first side", price: 0.05, mintA: solMint, mintB: jupMint, expected: 8.05},
		{name: "no native side passes through", price: 1.02, mintA: jupMint, mintB: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", expected: 1.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ToUSD(tt.price, tt.mintA, tt.mintB)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestRatioPrice(t *testing.T) {
	p := Pricing{NativePriceUSD: 161.0}

	// SOL first: price of the other token is SOL reserve over its reserve
	price, ok := p.RatioPrice([2]string{solMint, jupMint}, [2]float64{10_000, 1_000_000})
	assert.True(t, ok)
	assert.InDelta(t, 1.61, price, 1e-9)

	// SOL second: symmetric
	price, ok = p.RatioPrice([2]string{jupMint, solMint}, [2]float64{1_000_000, 10_000})
	assert.True(t, ok)
	assert.InDelta(t, 1.61, price, 1e-9)

	// Neither side native: raw ratio, no USD reference
	price, ok = p.RatioPrice([2]string{jupMint, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"}, [2]float64{200, 100})
	assert.True(t, ok)
	assert.InDelta(t, 0.5, price, 1e-9)

	// Zero divisor
	_, ok = p.RatioPrice([2]string{solMint, jupMint}, [2]float64{10_000, 0})
	assert.False(t, ok)
}

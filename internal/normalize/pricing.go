package normalize

// WrappedSOLMint is the wrapped SOL mint address, the reference asset for
// converting native-denominated prices to USD.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// Pricing converts provider-reported prices into USD using a fixed
// reference price for the native asset.
type Pricing struct {
	// NativePriceUSD is the reference USD price of SOL
	NativePriceUSD float64
}

func isNative(mint string) bool {
	return mint == WrappedSOLMint
}

// ToUSD converts a provider-reported pair price to USD. Prices in pairs
// that include wrapped SOL are SOL-denominated and get scaled by the
// reference price; prices in pairs without SOL pass through unchanged.
func (p Pricing) ToUSD(price float64, mintA, mintB string) float64 {
	if isNative(mintA) || isNative(mintB) {
		return price * p.NativePriceUSD
	}
	return price
}

// RatioPrice derives a spot price from pool reserves. For a pair that
// includes wrapped SOL the price of the other token is the SOL reserve
// divided by its own reserve, scaled to USD. Without SOL on either side
// there is no USD reference and the raw second-over-first ratio is
// returned.
func (p Pricing) RatioPrice(mints [2]string, amounts [2]float64) (float64, bool) {
	switch {
	case isNative(mints[0]):
		if amounts[1] == 0 {
			return 0, false
		}
		return amounts[0] / amounts[1] * p.NativePriceUSD, true
	case isNative(mints[1]):
		if amounts[0] == 0 {
			return 0, false
		}
		return amounts[1] / amounts[0] * p.NativePriceUSD, true
	default:
		if amounts[0] == 0 {
			return 0, false
		}
		return amounts[1] / amounts[0], true
	}
}

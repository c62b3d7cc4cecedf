// Package fetch provides provider-specific clients for retrieving raw pool data from Solana DEX APIs.
package fetch

import (
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// Hints carries pagination hints passed through to providers that page
// their results. Zero values let each provider apply its own defaults.
type Hints struct {
	Page     int
	PageSize int
}

// withDefaults fills zero hints with provider defaults. Raydium pages
// from 1, the Meteora APIs page from 0, so the first page is passed in
// by the provider itself.
func (h Hints) withDefaults(firstPage, pageSize int) Hints {
	if h.Page <= 0 {
		h.Page = firstPage
	}
	if h.PageSize <= 0 {
		h.PageSize = pageSize
	}
	return h
}

// newHTTPClient builds the HTTP client shared by the source adapters.
// Adapters must not retry on their own, so retries are disabled; the
// per-source timeout is enforced by the caller's context.
func newHTTPClient() *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.Logger = nil
	return rc.StandardClient()
}

// sortedPair joins two mints in lexicographic order, the form the Meteora
// APIs expect in include_pool_token_pairs.
func sortedPair(a, b string) string {
	if a < b {
		return a + "-" + b
	}
	return b + "-" + a
}

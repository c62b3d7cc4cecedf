package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
)

// rpcClient is a minimal Solana JSON-RPC 2.0 client. It carries no retry
// logic of its own; the per-source timeout arrives through the context.
type rpcClient struct {
	endpoint  string
	client    *http.Client
	requestID atomic.Uint64
}

func newRPCClient(endpoint string, client *http.Client) *rpcClient {
	return &rpcClient{
		endpoint: endpoint,
		client:   client,
	}
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a single JSON-RPC call and unmarshals the result.
func (c *rpcClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &rpcError{Code: resp.StatusCode, Message: string(snippet)}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

// keyedAccount is one entry from a getProgramAccounts response.
type keyedAccount struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		// Data is [payload, encoding]; payload is base64
		Data  []string `json:"data"`
		Owner string   `json:"owner"`
	} `json:"account"`
}

// getProgramAccounts fetches all accounts owned by a program that match
// the given filters, base64-encoded.
func (c *rpcClient) getProgramAccounts(ctx context.Context, program string, filters []interface{}) ([]keyedAccount, error) {
	params := []interface{}{
		program,
		map[string]interface{}{
			"encoding": "base64",
			"filters":  filters,
		},
	}

	var accounts []keyedAccount
	if err := c.call(ctx, "getProgramAccounts", params, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}
